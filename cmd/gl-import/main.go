// Command gl-import loads ledger entries from a JSON file into the
// configured persistent backend.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"glreport/internal/backend"
	"glreport/internal/cache"
	"glreport/internal/config"
	"glreport/internal/ledger/memory"
	applog "glreport/internal/log"
)

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "data/gl_entries.json", "JSON array of GL entries to import")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the import after this long")
	flag.Parse()

	cfg := config.Load()
	logger := applog.Setup(applog.ComponentImport, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Error("gl-import needs a persistent backend, set DATA_BACKEND to sqlite or postgres")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("Failed to read entries file", applog.FieldError, err.Error(), "file", *file)
		os.Exit(1)
	}
	entries, err := memory.DecodeEntries(raw)
	if err != nil {
		logger.Error("Failed to decode entries", applog.FieldError, err.Error(), "file", *file)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	// No balance cache: the importer never reads balances.
	backendCfg.BalanceCacheSize = 0

	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger, cache.NewManager()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	inserted, err := store.Writer.InsertEntries(ctx, entries)
	if err != nil {
		logger.Error("Import failed", applog.FieldError, err.Error(), "inserted", inserted)
		store.Close()
		os.Exit(1)
	}

	logger.Info("Import complete",
		"file", *file,
		"read", len(entries),
		"inserted", inserted,
		"skipped", len(entries)-inserted,
		"backend", cfg.DataBackend)
}
