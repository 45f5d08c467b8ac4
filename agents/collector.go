package agents

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paperpilot/paperpilot/sources"
	"github.com/paperpilot/paperpilot/types"
)

// Collector fans a topic query out to the requested research sources and
// concatenates their results.
type Collector struct {
	registry map[string]sources.Source
	order    []string
	logger   *zap.Logger
}

// NewCollector builds a collector over the given sources. The slice order
// is the concatenation order used when a request does not pick specific
// sources.
func NewCollector(srcs []sources.Source, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := make(map[string]sources.Source, len(srcs))
	order := make([]string, 0, len(srcs))
	for _, s := range srcs {
		registry[s.Name()] = s
		order = append(order, s.Name())
	}
	return &Collector{
		registry: registry,
		order:    order,
		logger:   logger.With(zap.String("component", "collector")),
	}
}

// Collect queries each requested source concurrently and returns the
// concatenation of their results in request order. A failing source
// contributes zero results instead of aborting the collection; when every
// source fails or finds nothing, the result is simply empty. Unknown source
// names fail fast with a configuration error before any network call.
func (c *Collector) Collect(ctx context.Context, topic string, sourceNames []string, maxResults int) ([]types.Reference, error) {
	if len(sourceNames) == 0 {
		sourceNames = c.order
	}

	selected := make([]sources.Source, 0, len(sourceNames))
	for _, name := range sourceNames {
		src, ok := c.registry[name]
		if !ok {
			return nil, types.NewErrorf(types.ErrConfiguration, "unknown research source %q", name)
		}
		selected = append(selected, src)
	}

	perSource := make([][]types.Reference, len(selected))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range selected {
		g.Go(func() error {
			refs, err := src.Search(gctx, topic, maxResults)
			if err != nil {
				c.logger.Warn("research source failed",
					zap.String("source", src.Name()),
					zap.String("topic", topic),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			perSource[i] = refs
			return nil
		})
	}
	// Goroutines only return nil; Wait is for completion, not errors.
	_ = g.Wait()

	out := make([]types.Reference, 0)
	for _, refs := range perSource {
		out = append(out, refs...)
	}

	c.logger.Info("collection completed",
		zap.String("topic", topic),
		zap.Int("sources", len(selected)),
		zap.Int("failed_sources", failed),
		zap.Int("references", len(out)))
	return out, nil
}

// SourceNames returns the collector's default source order.
func (c *Collector) SourceNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
