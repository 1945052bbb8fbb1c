// Package history keeps an optional sqlite ledger of completed runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	staging_root TEXT NOT NULL,
	report_path  TEXT NOT NULL,
	filtered     INTEGER NOT NULL,
	renamed      INTEGER NOT NULL,
	completed_at TIMESTAMP NOT NULL
);
`

// RunRecord is one completed pipeline run.
type RunRecord struct {
	ID          uuid.UUID `json:"id"`
	StagingRoot string    `json:"staging_root"`
	ReportPath  string    `json:"report_path"`
	Filtered    int       `json:"filtered"`
	Renamed     int       `json:"renamed"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store persists run records in a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one completed run.
func (s *Store) Record(ctx context.Context, rec RunRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}

	query := `
		INSERT INTO runs (id, staging_root, report_path, filtered, renamed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID.String(), rec.StagingRoot, rec.ReportPath,
		rec.Filtered, rec.Renamed, rec.CompletedAt,
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, staging_root, report_path, filtered, renamed, completed_at
		FROM runs ORDER BY completed_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var id string
		if err := rows.Scan(&id, &rec.StagingRoot, &rec.ReportPath, &rec.Filtered, &rec.Renamed, &rec.CompletedAt); err != nil {
			return nil, err
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt run id %q: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
