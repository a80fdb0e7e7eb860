package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on top of a go-redis client. Keys are
// namespaced with a prefix so several stores (OTP codes, match
// suggestions) can share one Redis database.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an established client. The prefix is prepended to
// every key with a ":" separator.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bs, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
