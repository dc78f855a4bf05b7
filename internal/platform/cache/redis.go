package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client for sessions, report caching and the job
// queue. An unreachable server is not fatal at startup; callers degrade
// to uncached behaviour, so a failed ping only logs a warning.
func New(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	return client
}
