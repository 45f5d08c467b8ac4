package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/sources"
	"github.com/paperpilot/paperpilot/types"
)

type stubSource struct {
	name string
	refs []types.Reference
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.refs, nil
}

func refsFor(source string, n int) []types.Reference {
	refs := make([]types.Reference, n)
	for i := range refs {
		refs[i] = types.Reference{
			Title:  fmt.Sprintf("%s paper %d", source, i),
			Source: source,
		}
	}
	return refs
}

func TestCollector_ConcatenatesInRequestOrder(t *testing.T) {
	collector := NewCollector([]sources.Source{
		&stubSource{name: "arxiv", refs: refsFor("arxiv", 2)},
		&stubSource{name: "google_scholar", refs: refsFor("google_scholar", 2)},
		&stubSource{name: "pubmed", refs: refsFor("pubmed", 1)},
	}, zap.NewNop())

	refs, err := collector.Collect(context.Background(), "topic", []string{"pubmed", "arxiv"}, 10)
	require.NoError(t, err)

	// Request order wins, not registration order.
	require.Len(t, refs, 3)
	assert.Equal(t, "pubmed", refs[0].Source)
	assert.Equal(t, "arxiv", refs[1].Source)
	assert.Equal(t, "arxiv paper 0", refs[1].Title)
	assert.Equal(t, "arxiv paper 1", refs[2].Title)
}

func TestCollector_FailureCombinations(t *testing.T) {
	names := []string{"arxiv", "google_scholar", "pubmed"}

	// Every combination of failing sources, from none to all.
	for mask := 0; mask < 1<<len(names); mask++ {
		t.Run(fmt.Sprintf("mask_%03b", mask), func(t *testing.T) {
			srcs := make([]sources.Source, len(names))
			wantRefs := 0
			for i, name := range names {
				if mask&(1<<i) != 0 {
					srcs[i] = &stubSource{name: name, err: types.NewError(types.ErrCollection, "down")}
				} else {
					srcs[i] = &stubSource{name: name, refs: refsFor(name, 2)}
					wantRefs += 2
				}
			}

			collector := NewCollector(srcs, zap.NewNop())
			refs, err := collector.Collect(context.Background(), "topic", names, 10)

			require.NoError(t, err, "per-source failures must never abort the collection")
			assert.Len(t, refs, wantRefs)

			// Surviving sources keep request order.
			last := -1
			for _, ref := range refs {
				idx := indexOf(names, ref.Source)
				assert.GreaterOrEqual(t, idx, last)
				last = idx
			}
		})
	}
}

func TestCollector_AllFailReturnsEmptyNotError(t *testing.T) {
	collector := NewCollector([]sources.Source{
		&stubSource{name: "arxiv", err: types.NewError(types.ErrCollection, "down")},
		&stubSource{name: "pubmed", err: types.NewError(types.ErrCollection, "down")},
	}, zap.NewNop())

	refs, err := collector.Collect(context.Background(), "topic", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestCollector_UnknownSourceFailsFast(t *testing.T) {
	collector := NewCollector([]sources.Source{
		&stubSource{name: "arxiv"},
	}, zap.NewNop())

	_, err := collector.Collect(context.Background(), "topic", []string{"arxiv", "scopus"}, 10)
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestCollector_DefaultsToAllSources(t *testing.T) {
	collector := NewCollector([]sources.Source{
		&stubSource{name: "arxiv", refs: refsFor("arxiv", 1)},
		&stubSource{name: "pubmed", refs: refsFor("pubmed", 1)},
	}, zap.NewNop())

	refs, err := collector.Collect(context.Background(), "topic", nil, 10)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Equal(t, []string{"arxiv", "pubmed"}, collector.SourceNames())
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
