package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard implements RecentGuard with SET NX and a TTL equal to the window.
type RedisGuard struct {
	client *redis.Client
	window time.Duration
}

// NewRedisGuard builds a guard over client.
func NewRedisGuard(client *redis.Client, window time.Duration) *RedisGuard {
	return &RedisGuard{client: client, window: window}
}

// Claim implements RecentGuard.
func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, key, 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}
