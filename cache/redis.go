// Package cache holds the Redis-backed helpers. Every helper is advisory:
// when Redis is unreachable callers fall back to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	config "github.com/anjiri1684/skill_bridge/configs"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const categoriesKey = "skill_bridge:categories"

// NewRedisClient connects to REDIS_ADDR. It returns nil when Redis is not
// configured or does not answer a ping.
func NewRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
		_ = client.Close()
		return nil
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	return client
}

// Categories caches the category list as one JSON value.
type Categories struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCategories(rdb *redis.Client, ttl time.Duration) *Categories {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Categories{rdb: rdb, ttl: ttl}
}

func (c *Categories) Categories(ctx context.Context) ([]models.Category, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("category cache read failed")
		}
		return nil, false
	}
	var cats []models.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		log.Warn().Err(err).Msg("category cache entry corrupt")
		return nil, false
	}
	return cats, true
}

func (c *Categories) StoreCategories(ctx context.Context, cats []models.Category) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("category cache write failed")
	}
}

func (c *Categories) InvalidateCategories(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, categoriesKey).Err(); err != nil {
		log.Warn().Err(err).Msg("category cache invalidation failed")
	}
}

// Claims de-duplicates work across replicas with SET NX.
type Claims struct {
	rdb    *redis.Client
	prefix string
}

func NewClaims(rdb *redis.Client, prefix string) *Claims {
	return &Claims{rdb: rdb, prefix: prefix}
}

// Claim reports whether the caller is the first to claim key within ttl.
// Without Redis every claim succeeds.
func (c *Claims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if c == nil || c.rdb == nil {
		return true, nil
	}
	return c.rdb.SetNX(ctx, c.prefix+key, 1, ttl).Result()
}
