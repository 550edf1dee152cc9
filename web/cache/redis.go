// Package cache owns the Redis connection backing sessions and request
// throttling. An empty address starts an embedded server.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	miniRedis  *miniredis.Miniredis
	isEmbedded bool
)

var errNotInitialized = errors.New("redis client not initialized")

// InitRedis connects to redisAddr, or starts an embedded Redis when it is
// empty.
func InitRedis(redisAddr string) error {
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		miniRedis = mr
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		isEmbedded = true
		logger.Info("Embedded Redis started on", mr.Addr())
		return nil
	}

	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		opts = &redis.Options{Addr: redisAddr}
	}
	client = redis.NewClient(opts)
	isEmbedded = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", redisAddr, err)
	}
	logger.Info("Connected to external Redis at", opts.Addr)
	return nil
}

func GetClient() *redis.Client {
	return client
}

func IsEmbedded() bool {
	return isEmbedded
}

// Close closes the connection and stops the embedded server if running.
func Close() error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
	}
	return err
}

// IncrWindow increments key and, on the first hit, expires it after
// window. It returns the hit count and the time left in the window.
func IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if client == nil {
		return 0, 0, errNotInitialized
	}
	pipe := client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	left := ttl.Val()
	if left < 0 {
		left = window
	}
	return incr.Val(), left, nil
}

// Delete removes keys.
func Delete(ctx context.Context, keys ...string) error {
	if client == nil {
		return errNotInitialized
	}
	return client.Del(ctx, keys...).Err()
}
