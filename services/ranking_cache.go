package services

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"wellness-engine/models"

	"github.com/go-redis/redis/v8"
)

// RankingCache keeps short-lived ranking computations in Redis so repeated
// leaderboard reads don't recompute against Postgres. It is never the source
// of truth for a user's own score. The engine runs fine without it.
type RankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRankingCache wires Redis from REDIS_ADDR; unset means caching disabled.
func NewRankingCache() *RankingCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("⚠️  REDIS_ADDR not set — ranking cache disabled")
		return &RankingCache{}
	}

	ttl := 60 * time.Second
	if raw := os.Getenv("RANKING_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			ttl = parsed
		} else {
			log.Printf("⚠️  Invalid RANKING_CACHE_TTL %q, keeping %s", raw, ttl)
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	log.Printf("✅ Ranking cache enabled (redis=%s, ttl=%s)", addr, ttl)
	return &RankingCache{client: client, ttl: ttl}
}

func (c *RankingCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached candidate list for key, if present and fresh.
func (c *RankingCache) Get(ctx context.Context, key string) ([]models.RankEntry, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️  Ranking cache read failed for %s: %v", key, err)
		}
		return nil, false
	}
	var entries []models.RankEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("⚠️  Ranking cache payload corrupt for %s: %v", key, err)
		return nil, false
	}
	return entries, true
}

// Set stores the candidate list under key for the configured TTL. Failures
// are logged and swallowed; the cache is best-effort.
func (c *RankingCache) Set(ctx context.Context, key string, entries []models.RankEntry) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("⚠️  Ranking cache write failed for %s: %v", key, err)
	}
}
