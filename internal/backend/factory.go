package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"glreport/internal/cache"
	"glreport/internal/ledger"
	"glreport/internal/ledger/memory"
	"glreport/internal/storage"
	"glreport/internal/storage/postgres"
)

const redisKeyPrefix = "glreport:balance:"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	caches *cache.Manager
}

// NewFactory creates a new backend factory. Balance caches it builds are
// registered with caches when it is non-nil.
func NewFactory(logger *slog.Logger, caches *cache.Manager) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		caches: caches,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.BalanceCacheRedisURL != "" {
		if err := f.attachRedisCache(ctx, result, config); err != nil {
			_ = result.Close()
			return nil, err
		}
		return result, nil
	}
	result.Balances = f.wrapBalances(result.Store, config)
	return result, nil
}

// attachRedisCache shares cached balances between processes through Redis.
// The Redis client is pinged with the store and closed with it.
func (f *DefaultFactory) attachRedisCache(ctx context.Context, result *BackendResult, config Config) error {
	client, err := cache.NewRedisClient(ctx, config.BalanceCacheRedisURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis balance cache: %w", err)
	}
	rc := cache.NewRedisCache[decimal.Decimal](client, redisKeyPrefix, config.BalanceCacheTTL)
	result.Balances = ledger.NewCachedBalances(result.Store, rc)

	storePing, storeCleanup := result.Ping, result.Cleanup
	result.Ping = func(ctx context.Context) error {
		if storePing != nil {
			if err := storePing(ctx); err != nil {
				return err
			}
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}
	result.Cleanup = func() error {
		var storeErr error
		if storeCleanup != nil {
			storeErr = storeCleanup()
		}
		return errors.Join(storeErr, client.Close())
	}

	f.logger.Info("Redis balance cache enabled", "ttl", config.BalanceCacheTTL.String())
	return nil
}

func (f *DefaultFactory) wrapBalances(store ledger.Store, config Config) ledger.BalanceLookup {
	if config.BalanceCacheSize <= 0 {
		return store
	}
	lru := cache.NewLRUCache[decimal.Decimal](config.BalanceCacheSize, config.BalanceCacheTTL)
	if f.caches != nil {
		f.caches.Register(lru)
	}
	f.logger.Info("Balance cache enabled",
		"size", config.BalanceCacheSize,
		"ttl", config.BalanceCacheTTL.String())
	return ledger.NewCachedBalances(store, lru)
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New(nil)
	if config.MemorySeedFile != "" {
		var err error
		store, err = memory.NewFromFile(config.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory seed file: %w", err)
		}
	}

	f.logger.Info("Initialized memory backend",
		"seed_file", config.MemorySeedFile,
		"entries", store.Len())

	return &BackendResult{
		Store:  store,
		Writer: store,
		Ping:   func(context.Context) error { return nil },
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Writer:  repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := postgres.RunMigrations(config.PostgresDSN); err != nil {
		return nil, fmt.Errorf("failed to migrate Postgres database: %w", err)
	}

	pool, err := postgres.NewPool(ctx, config.PostgresDSN, config.PostgresMaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres pool: %w", err)
	}
	store := postgres.NewStore(pool)

	f.logger.Info("Initialized Postgres backend", "max_conns", pool.Config().MaxConns)

	return &BackendResult{
		Store:   store,
		Writer:  store,
		Ping:    store.Ping,
		Cleanup: store.Close,
	}, nil
}
