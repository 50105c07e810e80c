package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"codementor/internal/config"
	"codementor/internal/logging/types"
)

const scanBatch = 200

// RedisStore keeps values under "<prefix>:<key>" in Redis. Nothing expires.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger types.Logger
}

// NewRedisStore connects to the server in the redis config section and
// pings it once. A malformed URL or an unreachable server is an error.
func NewRedisStore(cfg *config.Config, logger types.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	store := NewRedisStoreWithClient(redis.NewClient(opts), cfg.Redis.KeyPrefix, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	store.logger.Info("Connected to Redis", map[string]interface{}{
		"addr":   opts.Addr,
		"db":     opts.DB,
		"prefix": cfg.Redis.KeyPrefix,
	})
	return store, nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string, logger types.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.WithField("component", "redis_store"),
	}
}

func (r *RedisStore) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisStore) unkey(k string) string {
	if r.prefix == "" {
		return k
	}
	return strings.TrimPrefix(k, r.prefix+":")
}

// Get fetches keys in one round trip
func (r *RedisStore) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	values, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = json.RawMessage(s)
	}
	return out, nil
}

// Set writes every entry in one pipeline
func (r *RedisStore) Set(ctx context.Context, data map[string]json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range data {
			pipe.Set(ctx, r.key(k), []byte(v), 0)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save keys", map[string]interface{}{
			"count": len(data),
			"error": err.Error(),
		})
		return fmt.Errorf("failed to save keys: %w", err)
	}
	return nil
}

// Delete removes keys
func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Keys scans for keys starting with prefix
func (r *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	pattern := r.key(prefix) + "*"
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, r.unkey(k))
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Clear deletes every key under the store prefix
func (r *RedisStore) Clear(ctx context.Context) error {
	keys, err := r.Keys(ctx, "")
	if err != nil {
		return err
	}
	if err := r.Delete(ctx, keys...); err != nil {
		return err
	}
	r.logger.Info("Store cleared", map[string]interface{}{"keys": len(keys)})
	return nil
}

// Ping tests the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("redis ping timed out: %w", err)
		}
		return err
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
