// Package core defines the data structures shared by every storage backend.
// These are plain values with no behavior beyond small accessors, so that
// producers and consumers of review records stay decoupled from the engine
// that persists them.
package core

import "time"

// Review represents a single persisted code review.
//
// ID and CreatedAt are assigned by the storage engine at insert time and are
// immutable afterwards. Issues is always a well-formed sequence, possibly
// empty; the store round-trips it as structured data, never as raw text.
type Review struct {
	ID           int64          `db:"id"`
	CreatedAt    time.Time      `db:"created_at"`
	Filenames    []string       `db:"filenames"`
	Summary      string         `db:"summary"`
	Details      string         `db:"details"`
	RawResponse  string         `db:"raw_response"`
	Issues       []Issue        `db:"issues"`
	QualityScore float64        `db:"quality_score"`
	Strengths    []string       `db:"strengths"`
	Metrics      map[string]any `db:"metrics"`
}

// HasIssues reports whether the review found at least one issue.
func (r *Review) HasIssues() bool {
	return len(r.Issues) > 0
}

// Issue represents a single piece of feedback for a specific location in a
// reviewed file.
type Issue struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	EndLine    int    `json:"end_line,omitempty"` // For multi-line findings
	Severity   string `json:"severity"`           // e.g., "Low", "Medium", "High", "Critical"
	Category   string `json:"category"`           // e.g., "Best Practice", "Bug", "Style", "Security"
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	CodePatch  string `json:"code_patch,omitempty"`
}
