// Package sources implements the academic search adapters: arXiv, PubMed,
// and Google Scholar. Every adapter satisfies Source and returns references
// in the provider's own relevance order.
package sources

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/paperpilot/paperpilot/types"
)

// Source is a literature search backend.
type Source interface {
	// Search returns up to maxResults references for the query, most
	// relevant first. An empty result with a nil error is a valid
	// outcome, not a failure.
	Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error)

	// Name returns the source identifier used in logs, cache keys, and
	// reference attribution.
	Name() string
}

// RateLimited wraps a source with a client-side request limiter so bursts
// of concurrent research stages cannot trip upstream quotas.
type RateLimited struct {
	src     Source
	limiter *rate.Limiter
}

// NewRateLimited builds a rate-limited wrapper allowing rps requests per
// second with the given burst.
func NewRateLimited(src Source, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		src:     src,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Name() string { return r.src.Name() }

func (r *RateLimited) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.src.Search(ctx, query, maxResults)
}
