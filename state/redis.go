package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore namespaces keys as "<namespace>:<key>" and stores values
// JSON-encoded, matching §4.H's "remote REST-over-Redis" example adapter.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore returns a store scoped to namespace against an
// already-configured redis client; the caller owns the client's lifecycle.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (r *RedisStore) prefixedKey(key string) string {
	return r.namespace + ":" + key
}

func (r *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal state value: %w", err)
	}
	return r.client.Set(ctx, r.prefixedKey(key), data, 0).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get state value: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false, fmt.Errorf("unmarshal state value: %w", err)
	}
	return value, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefixedKey(key)).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisStore) GetAll(ctx context.Context) (map[string]any, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget state values: %w", err)
	}
	prefix := r.namespace + ":"
	for i, raw := range values {
		if raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(s), &value); err != nil {
			return nil, fmt.Errorf("unmarshal state value: %w", err)
		}
		out[strings.TrimPrefix(keys[i], prefix)] = value
	}
	return out, nil
}

func (r *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.namespace+":*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan state keys: %w", err)
	}
	return keys, nil
}
