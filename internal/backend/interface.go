package backend

import (
	"context"
	"time"

	"glreport/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc reports whether the store is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult bundles the ledger ports served by one store.
type BackendResult struct {
	Store ledger.Store
	// Writer is nil for backends that cannot be loaded.
	Writer ledger.EntryWriter
	// Balances is Store, wrapped in a cache when caching is enabled.
	Balances ledger.BalanceLookup
	Ping     PingFunc
	Cleanup  CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Memory specific
	MemorySeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN      string
	PostgresMaxConns int32

	// Balance cache, disabled when size is zero. A Redis URL replaces the
	// in-process cache with a shared one.
	BalanceCacheSize     int
	BalanceCacheTTL      time.Duration
	BalanceCacheRedisURL string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
