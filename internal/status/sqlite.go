package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists status records in a local SQLite database. Suited for
// single-node deployments where the durability of status records matters
// more than shared access.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS job_status (
	job_key      TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	timestamp    INTEGER NOT NULL,
	last_updated TEXT NOT NULL,
	results      TEXT NOT NULL DEFAULT ''
);
`

// NewSQLiteStore opens (and if needed initializes) the database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Status writes are serialized per key; a single connection avoids
	// SQLITE_BUSY on concurrent jobs.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put overwrites the record for its job key.
func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO job_status (job_key, status, timestamp, last_updated, results)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_key) DO UPDATE SET
			status = excluded.status,
			timestamp = excluded.timestamp,
			last_updated = excluded.last_updated,
			results = excluded.results
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.JobKey, rec.Status, rec.Timestamp, rec.LastUpdated, rec.Results,
	)
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

// Get returns the record for the job key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, jobKey string) (Record, error) {
	query := `
		SELECT job_key, status, timestamp, last_updated, results
		FROM job_status WHERE job_key = ?
	`
	var rec Record
	err := s.db.QueryRowContext(ctx, query, jobKey).Scan(
		&rec.JobKey, &rec.Status, &rec.Timestamp, &rec.LastUpdated, &rec.Results,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("sqlite get: %w", err)
	}
	return rec, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
