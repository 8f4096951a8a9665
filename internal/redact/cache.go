package redact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"aegis/internal/constants"
	"aegis/internal/logger"
	"aegis/pkg/metrics"
)

// ResultCache stores the redacted form of a joined input so repeated
// payloads skip the external call. Misses and cache errors are equivalent.
type ResultCache interface {
	Get(ctx context.Context, text string) (string, bool)
	Set(ctx context.Context, text, redacted string)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisCache(client *redis.Client, ttlSeconds int, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: log,
	}
}

func (c *RedisCache) Get(ctx context.Context, text string) (string, bool) {
	val, err := c.client.Get(ctx, cacheKey(text)).Result()
	if err == redis.Nil {
		metrics.RedactionCacheTotal.WithLabelValues("miss").Inc()
		return "", false
	}
	if err != nil {
		c.logger.WarnwCtx(ctx, "Redaction cache lookup failed", "error", err)
		metrics.RedactionCacheTotal.WithLabelValues("error").Inc()
		return "", false
	}
	metrics.RedactionCacheTotal.WithLabelValues("hit").Inc()
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, text, redacted string) {
	if err := c.client.Set(ctx, cacheKey(text), redacted, c.ttl).Err(); err != nil {
		c.logger.WarnwCtx(ctx, "Redaction cache store failed", "error", err)
	}
}

// Keys are content-addressed; the raw text never reaches Redis.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return constants.CacheKeyPrefixRedact + hex.EncodeToString(sum[:])
}
