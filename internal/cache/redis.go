// Package cache opens the Redis client backing the credential cache mirror.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open returns a Redis client for addr and verifies connectivity with a ping.
// Caller must call Close when done.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
