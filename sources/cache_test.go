package sources

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/types"
)

type countingSource struct {
	name  string
	calls int
	refs  []types.Reference
	err   error
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	s.calls++
	return s.refs, s.err
}

func newCacheFixture(t *testing.T) (*countingSource, *Cached, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	src := &countingSource{
		name: "arxiv",
		refs: []types.Reference{{Title: "Cached Paper", Source: "arxiv", Year: 2024}},
	}
	return src, NewCached(src, rdb, CacheConfig{TTL: time.Minute}, zap.NewNop()), mr
}

func TestCached_ReadThrough(t *testing.T) {
	src, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	refs, err := cached.Search(ctx, "graph ml", 10)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, 1, src.calls)

	refs, err = cached.Search(ctx, "graph ml", 10)
	require.NoError(t, err)
	assert.Equal(t, "Cached Paper", refs[0].Title)
	assert.Equal(t, 1, src.calls, "second search must hit the cache")

	// Different maxResults is a different key.
	_, err = cached.Search(ctx, "graph ml", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCached_TTLExpiry(t *testing.T) {
	src, cached, mr := newCacheFixture(t)
	ctx := context.Background()

	_, err := cached.Search(ctx, "graph ml", 10)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cached.Search(ctx, "graph ml", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "expired entries refetch")
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	src, cached, _ := newCacheFixture(t)
	src.err = types.NewError(types.ErrCollection, "upstream down")
	ctx := context.Background()

	_, err := cached.Search(ctx, "graph ml", 10)
	require.Error(t, err)

	_, err = cached.Search(ctx, "graph ml", 10)
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCached_NilClientPassesThrough(t *testing.T) {
	src := &countingSource{name: "pubmed"}
	cached := NewCached(src, nil, DefaultCacheConfig(), zap.NewNop())

	_, err := cached.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	_, err = cached.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRateLimited_Waits(t *testing.T) {
	src := &countingSource{name: "arxiv"}
	limited := NewRateLimited(src, 100, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := limited.Search(context.Background(), "q", 1)
		require.NoError(t, err)
	}
	// 100 rps with burst 1 forces ~10ms gaps after the first call.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, "arxiv", limited.Name())
}

func TestRateLimited_ContextCancel(t *testing.T) {
	src := &countingSource{name: "arxiv"}
	limited := NewRateLimited(src, 0.001, 1)

	ctx := context.Background()
	_, err := limited.Search(ctx, "q", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Search(ctx, "q", 1)
	require.Error(t, err, "waiting past the deadline should fail")
	assert.Equal(t, 1, src.calls)
}
