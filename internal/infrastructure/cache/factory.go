package cache

import (
	"go.uber.org/zap"

	"github.com/merchdash/backend/internal/domain/order"
)

// InvalidatorFactory creates list invalidators based on configuration
type InvalidatorFactory struct {
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// InvalidatorFactoryOption is a functional option for configuring the factory
type InvalidatorFactoryOption func(*InvalidatorFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) InvalidatorFactoryOption {
	return func(f *InvalidatorFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) InvalidatorFactoryOption {
	return func(f *InvalidatorFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewInvalidatorFactory creates a new factory
func NewInvalidatorFactory(cfg RedisConfig, opts ...InvalidatorFactoryOption) *InvalidatorFactory {
	f := &InvalidatorFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis-backed invalidator when a Redis host is configured,
// falling back to the in-memory store when allowed.
func (f *InvalidatorFactory) Create() (order.ListInvalidator, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("cache: no Redis configured, using in-memory list invalidator")
		return NewInMemoryListVersions(), nil
	}

	store, err := NewRedisListVersions(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, err
		}
		f.logger.Warn("cache: Redis unavailable, falling back to in-memory list invalidator",
			zap.Error(err))
		return NewInMemoryListVersions(), nil
	}

	f.logger.Info("cache: using Redis list invalidator",
		zap.String("host", f.redisConfig.Host), zap.Int("port", f.redisConfig.Port))
	return store, nil
}
