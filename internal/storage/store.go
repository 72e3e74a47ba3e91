// Package storage persists review records and answers the access patterns
// the rest of the system relies on: recency listings, primary-key lookup,
// counting, issue filtering, calendar-day filtering, and bulk clearing.
//
// Two interchangeable backends implement the Store contract: PostgreSQL for
// shared deployments and a pure-Go SQLite backend for embedded use.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sevigo/review-ledger/internal/config"
	"github.com/sevigo/review-ledger/internal/core"
	"github.com/sevigo/review-ledger/internal/db"
)

var (
	// ErrNotFound is returned by Get when no review has the requested id.
	ErrNotFound = errors.New("review not found")
	// ErrUnavailable wraps failures to reach the underlying storage medium.
	ErrUnavailable = errors.New("review storage unavailable")
)

// Store defines the interface for all review persistence operations.
// Records are written once, never mutated, and destroyed only by ClearAll.
type Store interface {
	// Create persists a new review. The engine assigns a fresh id and, when
	// the caller left CreatedAt zero, the current time; both are written back
	// into the passed record before Create returns.
	Create(ctx context.Context, review *core.Review) error

	// ListAll returns every live record, most recent first.
	ListAll(ctx context.Context) ([]*core.Review, error)

	// ListRecent returns the newest records, capped at limit.
	ListRecent(ctx context.Context, limit int) ([]*core.Review, error)

	// Get returns the review with the given id, or an error wrapping
	// ErrNotFound when no such record exists.
	Get(ctx context.Context, id int64) (*core.Review, error)

	// Count returns the number of live records.
	Count(ctx context.Context) (int64, error)

	// ListWithIssues returns the records whose issues sequence is non-empty,
	// most recent first. The check is structural (JSON array length), never a
	// string comparison against a serialized form.
	ListWithIssues(ctx context.Context) ([]*core.Review, error)

	// ListCreatedOn returns the records created on the given calendar day in
	// the store's configured reference time zone.
	ListCreatedOn(ctx context.Context, day time.Time) ([]*core.Review, error)

	// ListCreatedOnIn is ListCreatedOn with an explicit per-call time zone.
	ListCreatedOnIn(ctx context.Context, day time.Time, loc *time.Location) ([]*core.Review, error)

	// ClearAll destroys every live record and returns the exact count
	// destroyed. Irreversible.
	ClearAll(ctx context.Context) (int64, error)

	// Close releases the underlying connection pool.
	Close() error
}

// NewStore opens the backend selected by the configuration. The returned
// cleanup function closes the backend and is safe to call more than once.
func NewStore(cfg *config.Config) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dbConn, cleanup, err := db.NewDatabase(cfg.Database)
		if err != nil {
			return nil, func() {}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return NewPostgresStore(dbConn.DB, cfg.Timezone), cleanup, nil
	case config.DriverSQLite:
		store, err := NewSQLiteStore(cfg.SQLitePath, cfg.Timezone)
		if err != nil {
			return nil, func() {}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported storage driver %q", cfg.StoreDriver)
	}
}

// Scanner is satisfied by both *sql.Row and *sql.Rows, so one scan helper
// serves point lookups and listings alike.
type Scanner interface {
	Scan(dest ...any) error
}

// DayBounds returns the half-open window [start, end) covering the calendar
// day of the given instant in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
