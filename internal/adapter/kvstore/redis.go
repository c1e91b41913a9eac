package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/niksmo/office-storefront/pkg/retry"
	"github.com/redis/go-redis/v9"
)

var _ port.KVStorage = Redis{}

const defaultPrefix = "storefront:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// KeyTTL expires keys not written for that long, zero keeps them.
	KeyTTL   time.Duration
}

// Redis is a [port.KVStorage] shared by every storefront instance.
type Redis struct {
	cl       redis.UniversalClient
	prefix   string
	ttl      time.Duration
	retryCfg retry.RetryConfig
}

func NewRedis(ctx context.Context, cfg RedisConfig) (Redis, error) {
	const op = "NewRedis"

	cl := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cl.Ping(pingCtx).Err(); err != nil {
		_ = cl.Close()
		return Redis{}, fmt.Errorf("%s: %w", op, err)
	}

	r := newRedis(cl, cfg.Prefix)
	r.ttl = cfg.KeyTTL
	return r, nil
}

func newRedis(cl redis.UniversalClient, prefix string) Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return Redis{
		cl:     cl,
		prefix: prefix,
		retryCfg: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
			MaxDelay:    time.Second,
			ShouldRetry: shouldRetry,
			OnRetry: func(attempt int, err error) {
				slog.Warn("redis command failed, retrying",
					"op", "Redis", "attempt", attempt, "err", err)
			},
		},
	}
}

func (r Redis) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "Redis.Get"

	v, err := r.cl.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w: %q", op, port.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r Redis) Set(ctx context.Context, key string, value []byte) error {
	const op = "Redis.Set"

	err := retry.Do(ctx, r.retryCfg, func() error {
		return r.cl.Set(ctx, r.prefix+key, value, r.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r Redis) Remove(ctx context.Context, key string) error {
	const op = "Redis.Remove"

	err := retry.Do(ctx, r.retryCfg, func() error {
		return r.cl.Del(ctx, r.prefix+key).Err()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r Redis) Close() {
	const op = "Redis.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")
	if err := r.cl.Close(); err != nil {
		log.Error("failed to close redis client", "err", err)
		return
	}
	log.Info("redis client is closed")
}

func shouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
