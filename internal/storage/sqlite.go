package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver, CGO-free, compatible with CGO_ENABLED=0

	"github.com/sevigo/review-ledger/internal/core"
)

const sqliteReviewColumns = `id, created_at, filenames, summary, details, raw_response, issues, quality_score, strengths, metrics`

type sqliteStore struct {
	db  *sql.DB
	loc *time.Location
}

// NewSQLiteStore creates a Store backed by an embedded SQLite database at the
// given path. The location is the reference time zone for calendar-day
// filtering. The schema is applied on open and is idempotent.
func NewSQLiteStore(path string, loc *time.Location) (Store, error) {
	if loc == nil {
		loc = time.UTC
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &sqliteStore{db: db, loc: loc}, nil
}

func migrateSQLite(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS reviews (
        id            INTEGER PRIMARY KEY AUTOINCREMENT,
        created_at    DATETIME NOT NULL,
        filenames     TEXT NOT NULL DEFAULT '[]',
        summary       TEXT NOT NULL DEFAULT '',
        details       TEXT NOT NULL DEFAULT '',
        raw_response  TEXT NOT NULL DEFAULT '',
        issues        TEXT NOT NULL DEFAULT '[]',
        quality_score REAL NOT NULL DEFAULT 0,
        strengths     TEXT NOT NULL DEFAULT '[]',
        metrics       TEXT NOT NULL DEFAULT '{}'
    );
    CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at);
    `
	_, err := db.Exec(schema)
	return err
}

func (s *sqliteStore) Create(ctx context.Context, review *core.Review) error {
	issues, err := marshalIssues(review.Issues)
	if err != nil {
		return err
	}
	metrics, err := marshalMetrics(review.Metrics)
	if err != nil {
		return err
	}
	filenames, err := json.Marshal(nonNil(review.Filenames))
	if err != nil {
		return fmt.Errorf("marshal filenames: %w", err)
	}
	strengths, err := json.Marshal(nonNil(review.Strengths))
	if err != nil {
		return fmt.Errorf("marshal strengths: %w", err)
	}

	// Timestamps are stored in UTC so their text encoding orders and
	// range-compares correctly.
	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO reviews (created_at, filenames, summary, details, raw_response, issues, quality_score, strengths, metrics)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, createdAt, string(filenames), review.Summary, review.Details, review.RawResponse,
		string(issues), review.QualityScore, string(strengths), string(metrics))
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	review.ID = id
	review.CreatedAt = createdAt
	return nil
}

func (s *sqliteStore) ListAll(ctx context.Context) ([]*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY created_at DESC, id DESC`, sqliteReviewColumns)
	return s.queryReviews(ctx, query)
}

func (s *sqliteStore) ListRecent(ctx context.Context, limit int) ([]*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY created_at DESC, id DESC LIMIT ?`, sqliteReviewColumns)
	return s.queryReviews(ctx, query, limit)
}

func (s *sqliteStore) Get(ctx context.Context, id int64) (*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = ?`, sqliteReviewColumns)

	review, err := scanSQLiteReview(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return review, nil
}

func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

func (s *sqliteStore) ListWithIssues(ctx context.Context) ([]*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE json_array_length(issues) > 0 ORDER BY created_at DESC, id DESC`, sqliteReviewColumns)
	return s.queryReviews(ctx, query)
}

func (s *sqliteStore) ListCreatedOn(ctx context.Context, day time.Time) ([]*core.Review, error) {
	return s.ListCreatedOnIn(ctx, day, s.loc)
}

func (s *sqliteStore) ListCreatedOnIn(ctx context.Context, day time.Time, loc *time.Location) ([]*core.Review, error) {
	start, end := DayBounds(day, loc)
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE created_at >= ? AND created_at < ? ORDER BY created_at DESC, id DESC`, sqliteReviewColumns)
	return s.queryReviews(ctx, query, start.UTC(), end.UTC())
}

func (s *sqliteStore) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews`)
	if err != nil {
		return 0, fmt.Errorf("clear reviews: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear reviews: %w", err)
	}
	slog.Info("cleared all review records", "deleted", deleted)
	return deleted, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) queryReviews(ctx context.Context, query string, args ...any) ([]*core.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*core.Review
	for rows.Next() {
		review, err := scanSQLiteReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func scanSQLiteReview(s Scanner) (*core.Review, error) {
	var (
		review    core.Review
		filenames string
		strengths string
		issues    string
		metrics   string
	)

	err := s.Scan(&review.ID, &review.CreatedAt, &filenames, &review.Summary,
		&review.Details, &review.RawResponse, &issues, &review.QualityScore,
		&strengths, &metrics)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(filenames), &review.Filenames); err != nil {
		return nil, fmt.Errorf("unmarshal filenames: %w", err)
	}
	if err := json.Unmarshal([]byte(strengths), &review.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths: %w", err)
	}
	if review.Issues, err = unmarshalIssues([]byte(issues)); err != nil {
		return nil, err
	}
	if review.Metrics, err = unmarshalMetrics([]byte(metrics)); err != nil {
		return nil, err
	}
	return &review, nil
}
