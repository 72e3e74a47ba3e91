// Package reviewledger persists code-review results and answers the access
// patterns a review producer and its reporting consumers need: recency
// listings, lookup by id, counting, filtering to reviews that found issues,
// calendar-day filtering, and bulk clearing.
//
// The ledger is consumed in-process. Open wires the configured backend from
// the environment; OpenSQLite gives an embedded store with no external
// services.
package reviewledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/review-ledger/internal/config"
	"github.com/sevigo/review-ledger/internal/core"
	"github.com/sevigo/review-ledger/internal/logger"
	"github.com/sevigo/review-ledger/internal/storage"
)

// Re-exported so consumers never import internal packages directly.
type (
	Review = core.Review
	Issue  = core.Issue
	Store  = storage.Store
)

var (
	ErrNotFound    = storage.ErrNotFound
	ErrUnavailable = storage.ErrUnavailable
)

// Ledger is a Store plus the lifecycle of its underlying backend.
type Ledger struct {
	Store

	cleanup func()
}

// Open loads configuration from the environment and an optional .env file,
// installs the configured default logger, and opens the selected storage
// backend.
func Open() (*Ledger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel.String(),
		Format: "text",
		Output: "stderr",
	}, nil)
	slog.SetDefault(log)

	store, cleanup, err := storage.NewStore(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("review ledger opened", "driver", cfg.StoreDriver, "timezone", cfg.Timezone.String())
	return &Ledger{Store: store, cleanup: cleanup}, nil
}

// OpenSQLite opens an embedded ledger at the given path, bypassing the
// environment. The location is the reference time zone for calendar-day
// filtering; nil means UTC.
func OpenSQLite(path string, loc *time.Location) (*Ledger, error) {
	store, err := storage.NewSQLiteStore(path, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Ledger{Store: store, cleanup: func() { _ = store.Close() }}, nil
}

// Close releases the underlying backend. Safe to call more than once.
func (l *Ledger) Close() error {
	if l.cleanup != nil {
		l.cleanup()
	}
	return nil
}
