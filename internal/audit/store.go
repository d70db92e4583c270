// Package audit persists a trail of transcode sessions: which format ran,
// in which direction, how many lines and records it touched, and which
// columns governance rejected.
//
// The store is optional. With no database pool configured it is disabled
// and every operation is a cheap no-op, so the transcoding core never
// depends on the database being reachable.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Direction distinguishes parse sessions from render sessions.
type Direction string

const (
	DirectionParse  Direction = "parse"
	DirectionRender Direction = "render"
)

// Entry is one recorded transcode session.
type Entry struct {
	ID              string    `json:"id"`
	Format          string    `json:"format"`
	Direction       Direction `json:"direction"`
	Filename        string    `json:"filename,omitempty"`
	Lines           int       `json:"lines"`
	Records         int       `json:"records"`
	Failed          int       `json:"failed"`
	RejectedColumns []string  `json:"rejectedColumns,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Store writes and reads audit entries. A nil pool disables it.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over the given pool. Pass nil to disable.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Enabled reports whether entries are actually persisted.
func (s *Store) Enabled() bool {
	return s != nil && s.pool != nil
}

// EnsureSchema creates the audit table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transcode_audit (
			id               UUID PRIMARY KEY,
			format           TEXT NOT NULL,
			direction        TEXT NOT NULL,
			filename         TEXT NOT NULL DEFAULT '',
			lines            INT NOT NULL DEFAULT 0,
			records          INT NOT NULL DEFAULT 0,
			failed           INT NOT NULL DEFAULT 0,
			rejected_columns TEXT[] NOT NULL DEFAULT '{}',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Record persists one session entry. Missing IDs and timestamps are filled
// in here so callers only describe what happened.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if !s.Enabled() {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.RejectedColumns == nil {
		e.RejectedColumns = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcode_audit
			(id, format, direction, filename, lines, records, failed, rejected_columns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Format, string(e.Direction), e.Filename,
		e.Lines, e.Records, e.Failed, e.RejectedColumns, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if !s.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, format, direction, filename, lines, records, failed, rejected_columns, created_at
		FROM transcode_audit
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var direction string
		if err := rows.Scan(&e.ID, &e.Format, &direction, &e.Filename,
			&e.Lines, &e.Records, &e.Failed, &e.RejectedColumns, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Direction = Direction(direction)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
