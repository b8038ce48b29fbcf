// Package results persists the summary of every completed quiz run.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/dsaquiz/internal/session"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// timeLayout has a fixed width so completed_at sorts as text. Reads parse
// RFC 3339 since the driver may hand the value back with trailing zeros
// trimmed.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrInvalidResult = errors.New("invalid result")

type Result struct {
	ID          int64            `json:"id"`
	SessionID   string           `json:"sessionId"`
	Category    string           `json:"category"`
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Answers     []session.Answer `json:"answers"`
	CompletedAt time.Time        `json:"completedAt"`
}

// FromSummary builds the record for a completed run.
func FromSummary(sessionID, category string, s session.Summary, at time.Time) Result {
	return Result{
		SessionID:   sessionID,
		Category:    category,
		Score:       s.Score,
		Total:       s.Total,
		Answers:     s.Answers,
		CompletedAt: at,
	}
}

type CategoryStats struct {
	Category     string  `json:"category"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	BestScore    int     `json:"bestScore"`
	Accuracy     float64 `json:"accuracy"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, r Result) (Result, error) {
	if r.SessionID == "" || r.Category == "" {
		return Result{}, fmt.Errorf("%w: session id and category are required", ErrInvalidResult)
	}
	if r.Total <= 0 || r.Score < 0 || r.Score > r.Total {
		return Result{}, fmt.Errorf("%w: score %d of %d", ErrInvalidResult, r.Score, r.Total)
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now()
	}
	r.CompletedAt = r.CompletedAt.UTC()
	if r.Answers == nil {
		r.Answers = []session.Answer{}
	}

	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return Result{}, fmt.Errorf("encoding answers: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO results (session_id, category, score, total, answers, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, r.SessionID, r.Category, r.Score, r.Total, string(answers), r.CompletedAt.Format(timeLayout)).Scan(&r.ID)
	if err != nil {
		return Result{}, fmt.Errorf("recording result: %w", err)
	}
	return r, nil
}

// Recent returns up to limit results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, category, score, total, answers, completed_at
		FROM results
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var (
			r           Result
			answers     string
			completedAt string
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Category, &r.Score, &r.Total, &answers, &completedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("result %d: decoding answers: %w", r.ID, err)
		}
		r.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, fmt.Errorf("result %d: parsing completed_at: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CategoryStats aggregates attempts per category, ordered by category.
func (s *Store) CategoryStats(ctx context.Context) ([]CategoryStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category,
		       COUNT(*),
		       AVG(score),
		       MAX(score),
		       CAST(SUM(score) AS REAL) / SUM(total)
		FROM results
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregating results: %w", err)
	}
	defer rows.Close()

	out := []CategoryStats{}
	for rows.Next() {
		var c CategoryStats
		if err := rows.Scan(&c.Category, &c.Attempts, &c.AverageScore, &c.BestScore, &c.Accuracy); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
