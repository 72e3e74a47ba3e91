package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/sevigo/review-ledger/internal/core"
)

const pgReviewColumns = `id, created_at, filenames, summary, details, raw_response, issues, quality_score, strengths, metrics`

type postgresStore struct {
	db  *sqlx.DB
	loc *time.Location
}

// NewPostgresStore creates a Store backed by PostgreSQL. The location is the
// reference time zone for calendar-day filtering.
func NewPostgresStore(db *sqlx.DB, loc *time.Location) Store {
	if loc == nil {
		loc = time.UTC
	}
	return &postgresStore{db: db, loc: loc}
}

func (s *postgresStore) Create(ctx context.Context, review *core.Review) error {
	issues, err := marshalIssues(review.Issues)
	if err != nil {
		return err
	}
	metrics, err := marshalMetrics(review.Metrics)
	if err != nil {
		return err
	}

	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO reviews (created_at, filenames, summary, details, raw_response, issues, quality_score, strengths, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	row := s.db.QueryRowContext(ctx, query,
		createdAt,
		pq.StringArray(nonNil(review.Filenames)),
		review.Summary,
		review.Details,
		review.RawResponse,
		types.JSONText(issues),
		review.QualityScore,
		pq.StringArray(nonNil(review.Strengths)),
		types.JSONText(metrics),
	)
	if err := row.Scan(&review.ID, &review.CreatedAt); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *postgresStore) ListAll(ctx context.Context) ([]*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY created_at DESC, id DESC`, pgReviewColumns)
	return s.queryReviews(ctx, query)
}

func (s *postgresStore) ListRecent(ctx context.Context, limit int) ([]*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY created_at DESC, id DESC LIMIT $1`, pgReviewColumns)
	return s.queryReviews(ctx, query, limit)
}

func (s *postgresStore) Get(ctx context.Context, id int64) (*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, pgReviewColumns)

	review, err := scanPostgresReview(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return review, nil
}

func (s *postgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

func (s *postgresStore) ListWithIssues(ctx context.Context) ([]*core.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE jsonb_array_length(issues) > 0 ORDER BY created_at DESC, id DESC`, pgReviewColumns)
	return s.queryReviews(ctx, query)
}

func (s *postgresStore) ListCreatedOn(ctx context.Context, day time.Time) ([]*core.Review, error) {
	return s.ListCreatedOnIn(ctx, day, s.loc)
}

func (s *postgresStore) ListCreatedOnIn(ctx context.Context, day time.Time, loc *time.Location) ([]*core.Review, error) {
	start, end := DayBounds(day, loc)
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC, id DESC`, pgReviewColumns)
	return s.queryReviews(ctx, query, start, end)
}

func (s *postgresStore) ClearAll(ctx context.Context) (int64, error) {
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

func (s *postgresStore) Close() error {
	return s.db.Close()
}

func (s *postgresStore) queryReviews(ctx context.Context, query string, args ...any) ([]*core.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*core.Review
	for rows.Next() {
		review, err := scanPostgresReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func scanPostgresReview(s Scanner) (*core.Review, error) {
	var (
		review    core.Review
		filenames pq.StringArray
		strengths pq.StringArray
		issues    types.JSONText
		metrics   types.JSONText
	)

	err := s.Scan(&review.ID, &review.CreatedAt, &filenames, &review.Summary,
		&review.Details, &review.RawResponse, &issues, &review.QualityScore,
		&strengths, &metrics)
	if err != nil {
		return nil, err
	}

	review.Filenames = []string(filenames)
	review.Strengths = []string(strengths)

	if review.Issues, err = unmarshalIssues([]byte(issues)); err != nil {
		return nil, err
	}
	if review.Metrics, err = unmarshalMetrics([]byte(metrics)); err != nil {
		return nil, err
	}
	return &review, nil
}
