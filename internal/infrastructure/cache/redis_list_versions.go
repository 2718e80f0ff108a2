package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merchdash/backend/internal/domain/order"
)

// defaultKeyPrefix namespaces partition version keys in Redis
const defaultKeyPrefix = "merchdash:listver:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisListVersions implements ListInvalidator on Redis, for deployments
// where several dashboard instances must observe each other's mutations.
type RedisListVersions struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisListVersions creates a Redis-backed partition version store and
// verifies the connection.
func NewRedisListVersions(cfg RedisConfig) (*RedisListVersions, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to Redis: %w", err)
	}

	return &RedisListVersions{client: client, keyPrefix: defaultKeyPrefix}, nil
}

// NewRedisListVersionsWithClient creates a store with an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisListVersionsWithClient(client *redis.Client, keyPrefix string) *RedisListVersions {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisListVersions{client: client, keyPrefix: keyPrefix}
}

// Invalidate bumps the version of the given partition atomically via INCR,
// plus the all-statuses partition of the same source.
func (s *RedisListVersions) Invalidate(ctx context.Context, key order.PartitionKey) error {
	if err := s.client.Incr(ctx, s.keyPrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", key, err)
	}
	if key.Status != nil {
		all := order.PartitionKey{Source: key.Source}
		if err := s.client.Incr(ctx, s.keyPrefix+all.String()).Err(); err != nil {
			return fmt.Errorf("cache: invalidate %s: %w", all, err)
		}
	}
	return nil
}

// Version returns the current partition version, 0 if never invalidated
func (s *RedisListVersions) Version(ctx context.Context, key order.PartitionKey) (int64, error) {
	n, err := s.client.Get(ctx, s.keyPrefix+key.String()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: version %s: %w", key, err)
	}
	return n, nil
}

// Close releases the underlying Redis client
func (s *RedisListVersions) Close() error {
	return s.client.Close()
}

// Ensure RedisListVersions implements the ListInvalidator port
var _ order.ListInvalidator = (*RedisListVersions)(nil)
