package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/types"
)

// CacheConfig configures the search result cache.
type CacheConfig struct {
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// DefaultCacheConfig returns sensible defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 1 * time.Hour}
}

// Cached is a read-through Redis cache in front of a source. Search APIs
// are slow and rate-limited; repeated research runs on the same topic hit
// the cache instead.
type Cached struct {
	src    Source
	rdb    *redis.Client
	config CacheConfig
	logger *zap.Logger
}

// NewCached wraps src with a Redis read-through cache. A nil client turns
// the wrapper into a pass-through.
func NewCached(src Source, rdb *redis.Client, config CacheConfig, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		src:    src,
		rdb:    rdb,
		config: config,
		logger: logger.With(zap.String("component", "source_cache"), zap.String("source", src.Name())),
	}
}

func (c *Cached) Name() string { return c.src.Name() }

func (c *Cached) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	if c.rdb == nil {
		return c.src.Search(ctx, query, maxResults)
	}

	key := c.cacheKey(query, maxResults)
	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var refs []types.Reference
		if err := json.Unmarshal(data, &refs); err == nil {
			c.logger.Debug("cache hit", zap.String("query", query))
			return refs, nil
		}
		// Corrupt entries are dropped and refetched.
		c.rdb.Del(ctx, key)
	}

	refs, err := c.src.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(refs); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return refs, nil
}

func (c *Cached) cacheKey(query string, maxResults int) string {
	sum := sha256.Sum256([]byte(query + "\x00" + strconv.Itoa(maxResults)))
	return fmt.Sprintf("paperpilot:search:%s:%s", c.src.Name(), hex.EncodeToString(sum[:16]))
}
