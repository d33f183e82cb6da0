package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/config"
)

const keyPrefix = "recommender:"

// Cache stores rendered recommendation responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key derives the cache key of a query against one engine build. The
// signature covers the catalog contents and the build options, so entries
// written for another catalog or configuration are never served.
func Key(signature, mode, input string) string {
	sum := sha256.Sum256([]byte(signature + "|" + mode + "|" + input))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// New returns a Redis cache when enabled and reachable, otherwise a no-op
func New(ctx context.Context, cfg config.CacheConfig, logger *logrus.Entry) Cache {
	if !cfg.Enabled {
		return NopCache{}
	}
	rc, err := NewRedisCache(ctx, cfg)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Response cache disabled, redis unavailable")
		}
		return NopCache{}
	}
	if logger != nil {
		logger.WithField("addr", cfg.RedisURL).Info("Response cache enabled")
	}
	return rc
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(ctx context.Context, key string, value []byte) error {
	return nil
}

func (NopCache) Close() error {
	return nil
}

// RedisCache implements Cache on a Redis server
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
