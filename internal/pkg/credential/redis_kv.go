// internal/pkg/credential/redis_kv.go
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores entries under "credential:{<device>}:<key>" so several
// devices can share one Redis during development. The device is a hash
// tag, which keeps one device's keys in a single cluster slot.
type RedisKV struct {
	client redis.UniversalClient
	device string
}

func NewRedisKV(client redis.UniversalClient, device string) *RedisKV {
	if device == "" {
		device = "default"
	}
	return &RedisKV{client: client, device: device}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s from redis: %w", key, err)
	}
	return v, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s in redis: %w", key, err)
	}
	return nil
}

func (r *RedisKV) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store credentials in redis: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (r *RedisKV) key(k string) string {
	return KeyFor(r.device, k)
}

// KeyFor returns the Redis key a device's entry is stored under
func KeyFor(device, key string) string {
	return fmt.Sprintf("credential:{%s}:%s", device, key)
}
