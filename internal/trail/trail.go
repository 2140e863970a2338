// Package trail persists resolved links to PostgreSQL so linking runs
// can be replayed and reviewed later. The trail is optional; the engine
// runs fully without it.
package trail

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/link"
)

// Trail writes one row per resolved link and serves review queries.
type Trail struct {
	db *sql.DB
}

// New wraps an open PostgreSQL connection. Call EnsureSchema once
// before recording.
func New(db *sql.DB) *Trail {
	return &Trail{db: db}
}

// EnsureSchema creates the trail table if it does not exist.
func (t *Trail) EnsureSchema(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS link_trail (
			trail_id       bigserial PRIMARY KEY,
			run_id         text NOT NULL,
			voyage_ref     text NOT NULL,
			ship_name      text NOT NULL,
			link_type      text NOT NULL,
			target_ref     text NOT NULL,
			method         text NOT NULL,
			confidence     double precision NOT NULL,
			candidate_json jsonb,
			created_at     timestamptz DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure link_trail table: %w", err)
	}
	return nil
}

// RecordLink stores one resolved link. Fuzzy links keep their scored
// candidate as JSON so reviewers can see the per-signal breakdown.
func (t *Trail) RecordLink(ctx context.Context, runID string, voyage *archive.Record, l *link.Link) error {
	var candidateJSON any
	if l.Candidate != nil {
		raw, err := json.Marshal(l.Candidate)
		if err != nil {
			return fmt.Errorf("marshal candidate for %s: %w", voyage.Ref(), err)
		}
		candidateJSON = string(raw)
	}

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO link_trail (
			run_id, voyage_ref, ship_name, link_type, target_ref, method, confidence, candidate_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, runID, voyage.Ref(), voyage.Name, string(l.Type), l.Ref, string(l.Method), l.Confidence, candidateJSON)
	if err != nil {
		return fmt.Errorf("insert trail row for %s: %w", voyage.Ref(), err)
	}
	return nil
}

// Entry is one recorded link, newest first in History results.
type Entry struct {
	TrailID    int64           `json:"trail_id"`
	RunID      string          `json:"run_id"`
	VoyageRef  string          `json:"voyage_ref"`
	ShipName   string          `json:"ship_name"`
	LinkType   string          `json:"link_type"`
	TargetRef  string          `json:"target_ref"`
	Method     string          `json:"method"`
	Confidence float64         `json:"confidence"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// History returns every recorded link for a voyage, newest first.
func (t *Trail) History(ctx context.Context, voyageRef string) ([]Entry, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT trail_id, run_id, voyage_ref, ship_name, link_type, target_ref,
		       method, confidence, candidate_json, created_at
		FROM link_trail
		WHERE voyage_ref = $1
		ORDER BY created_at DESC, trail_id DESC
	`, voyageRef)
	if err != nil {
		return nil, fmt.Errorf("query trail history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			candidate sql.NullString
		)
		if err := rows.Scan(
			&entry.TrailID,
			&entry.RunID,
			&entry.VoyageRef,
			&entry.ShipName,
			&entry.LinkType,
			&entry.TargetRef,
			&entry.Method,
			&entry.Confidence,
			&candidate,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trail row: %w", err)
		}
		if candidate.Valid {
			entry.Candidate = json.RawMessage(candidate.String)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TypeStats aggregates recorded links of one type within a run.
type TypeStats struct {
	LinkType      string  `json:"link_type"`
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
}

// RunStats summarizes one linking run.
type RunStats struct {
	RunID  string               `json:"run_id"`
	Total  int64                `json:"total"`
	ByType map[string]TypeStats `json:"by_type"`
}

// RunSummary aggregates the trail rows of a run by link type.
func (t *Trail) RunSummary(ctx context.Context, runID string) (*RunStats, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT link_type, COUNT(*), AVG(confidence), MIN(confidence), MAX(confidence)
		FROM link_trail
		WHERE run_id = $1
		GROUP BY link_type
		ORDER BY link_type
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run summary: %w", err)
	}
	defer rows.Close()

	stats := &RunStats{RunID: runID, ByType: make(map[string]TypeStats)}
	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(&ts.LinkType, &ts.Count, &ts.AvgConfidence, &ts.MinConfidence, &ts.MaxConfidence); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		stats.ByType[ts.LinkType] = ts
		stats.Total += ts.Count
	}
	return stats, rows.Err()
}
