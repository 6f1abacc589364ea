package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "fitcoach:reply:"

// Redis keeps replies in Redis with SET ... EX.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Redis)

func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) { r.ttl = ttl }
}

func WithPrefix(prefix string) Option {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis connects to a Redis server at address.
func NewRedis(address, password string, db int, opts ...Option) *Redis {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewFromClient(client *backend.Client, opts ...Option) *Redis {
	r := &Redis{client: client, prefix: defaultPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
