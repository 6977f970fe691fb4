package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/medworld/product-search/internal/catalog"
	"github.com/medworld/product-search/internal/pkg/logger"
)

// EmbedCache decorates a catalog.Embedder with a redis cache for text-query
// embeddings. The embedder is deterministic for identical input, so cached
// vectors never go stale; the TTL only bounds memory. Image embeddings are
// not cached: uploads rarely repeat byte-identically.
//
// The cache is strictly best-effort. Redis being down degrades to the
// wrapped embedder, never to a request failure.
type EmbedCache struct {
	log  *logger.Logger
	rdb  *goredis.Client
	next catalog.Embedder
	ttl  time.Duration
}

type Config struct {
	Addr string
	TTL  time.Duration
}

func New(log *logger.Logger, cfg Config, next catalog.Embedder) (*EmbedCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if next == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &EmbedCache{
		log:  log.With("client", "EmbedCache"),
		rdb:  rdb,
		next: next,
		ttl:  cfg.TTL,
	}, nil
}

func (c *EmbedCache) Close() error {
	return c.rdb.Close()
}

func (c *EmbedCache) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	} else if err != goredis.Nil && ctx.Err() == nil {
		c.log.Debug("embed cache read failed", "error", err)
	}

	vec, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(vec); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil && ctx.Err() == nil {
			c.log.Debug("embed cache write failed", "error", err)
		}
	}
	return vec, nil
}

func (c *EmbedCache) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return c.next.EmbedImage(ctx, image)
}

func (c *EmbedCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:text:" + hex.EncodeToString(sum[:])
}
