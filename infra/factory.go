package infra

import (
	"fmt"
	"log/slog"
	"time"

	infracache "github.com/amirasaad/treasury/infra/cache"
	infraeventbus "github.com/amirasaad/treasury/infra/eventbus"
	"github.com/amirasaad/treasury/infra/provider/starknet"
	"github.com/amirasaad/treasury/infra/provider/stuboracle"
	"github.com/amirasaad/treasury/pkg/cache"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/amirasaad/treasury/pkg/eventbus"
	"github.com/amirasaad/treasury/pkg/provider/blockchain"
	"github.com/redis/go-redis/v9"
)

// Closer is implemented by components that hold connections or goroutines.
type Closer interface {
	Close() error
}

// NewOracle returns the configured blockchain oracle.
func NewOracle(cfg *config.Oracle, logger *slog.Logger) (blockchain.Oracle, error) {
	if cfg == nil {
		return stuboracle.New(), nil
	}
	switch cfg.Provider {
	case "", "stub":
		logger.Warn("Using stub blockchain oracle; pending transactions stay PENDING")
		return stuboracle.New(), nil
	case "starknet":
		if cfg.RPCURL == "" {
			return nil, fmt.Errorf("starknet oracle: ORACLE_RPC_URL is not set")
		}
		logger.Info("Using Starknet JSON-RPC oracle", "url", cfg.RPCURL)
		return starknet.New(cfg.RPCURL, cfg.HTTPTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider %q", cfg.Provider)
	}
}

// NewCache returns the read cache used by dashboards, or nil when disabled.
// The returned Closer releases the backing store.
func NewCache(cfg *config.Cache, logger *slog.Logger) (*cache.Loader, Closer, error) {
	if cfg == nil || cfg.TTL <= 0 || cfg.Driver == "none" {
		logger.Info("Dashboard cache disabled")
		return nil, nil, nil
	}
	switch cfg.Driver {
	case "", "memory":
		store := infracache.NewMemoryCache(time.Minute)
		logger.Info("Using in-memory dashboard cache", "ttl", cfg.TTL)
		return cache.NewLoader(store, cfg.TTL, logger), store, nil
	case "redis":
		store, err := infracache.NewRedisCacheFromURL(cfg.Url, cfg.Prefix, logger)
		if err != nil {
			logger.Error("Invalid Redis URL", "error", err)
			return nil, nil, err
		}
		logger.Info("Using Redis dashboard cache", "ttl", cfg.TTL, "prefix", cfg.Prefix)
		return cache.NewLoader(store, cfg.TTL, logger), store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// NewEventBus returns the configured outbound event bus. The Closer is nil
// for the in-memory bus.
func NewEventBus(cfg *config.EventBus, logger *slog.Logger) (eventbus.Bus, Closer, error) {
	if cfg == nil {
		return infraeventbus.NewWithMemory(logger), nil, nil
	}
	switch cfg.Driver {
	case "", "memory":
		logger.Info("Using in-memory event bus")
		return infraeventbus.NewWithMemory(logger), nil, nil
	case "redis":
		if cfg.Redis == nil {
			return nil, nil, fmt.Errorf("redis event bus: EVENT_BUS_REDIS_URL is not set")
		}
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
		}
		opt.PoolSize = cfg.Redis.PoolSize
		opt.DialTimeout = cfg.Redis.DialTimeout
		opt.ReadTimeout = cfg.Redis.ReadTimeout
		opt.WriteTimeout = cfg.Redis.WriteTimeout
		stream := cfg.Redis.KeyPrefix + cfg.Stream
		bus := infraeventbus.NewWithRedisClient(redis.NewClient(opt), stream, logger)
		logger.Info("Using Redis Streams event bus", "stream", stream)
		return bus, bus, nil
	case "kafka":
		if cfg.Kafka == nil {
			return nil, nil, fmt.Errorf("kafka event bus: EVENT_BUS_KAFKA_BROKERS is not set")
		}
		bus, err := infraeventbus.NewWithKafka(cfg.Kafka.Brokers, infraeventbus.KafkaEventBusConfig{
			GroupID:     cfg.Kafka.GroupID,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus driver %q", cfg.Driver)
	}
}
