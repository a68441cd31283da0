package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the shared cache tier.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisStore is a shared second-tier cache with JSON values and a TTL.
// It lets separate processes reuse expensive upstream results.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
// Parameters:
//   - ctx: context used for the initial ping.
//   - cfg: connection settings.
// Returns:
//   - *RedisStore: connected store.
//   - error: non-nil if the server is unreachable.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "artmatch"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, namespace, key)
}

// GetJSON decodes the value stored under namespace/key into out.
// A missing key reports false with a nil error.
func (s *RedisStore) GetJSON(ctx context.Context, namespace, key string, out interface{}) (bool, error) {
	data, err := s.client.Get(ctx, s.key(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s cache: %w", namespace, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s cache: %w", namespace, err)
	}
	return true, nil
}

// SetJSON stores value under namespace/key with the configured TTL.
func (s *RedisStore) SetJSON(ctx context.Context, namespace, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s cache: %w", namespace, err)
	}
	if err := s.client.Set(ctx, s.key(namespace, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s cache: %w", namespace, err)
	}
	return nil
}
