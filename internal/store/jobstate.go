package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadJobState returns the persisted state blob for a job, or nil when the
// job is unknown.
func (s *Store) LoadJobState(ctx context.Context, jobID string) ([]byte, error) {
	var state string
	row := s.db.QueryRowContext(ctx, `SELECT state_json FROM validation_jobs WHERE id = ?`, jobID)
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load job state: %w", err)
	}
	return []byte(state), nil
}

// SaveJobState persists the state blob for a job. Called after every
// processed profile, so it is the crash-safety checkpoint.
func (s *Store) SaveJobState(ctx context.Context, jobID string, state []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO validation_jobs (id, state_json, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`,
		jobID, string(state), now, now,
	); err != nil {
		return fmt.Errorf("save job state: %w", err)
	}
	return nil
}

// ArchiveJobState renames a job record, preserving its audit trail under a
// run-suffixed identifier so a fresh job can reuse the date-scoped id.
func (s *Store) ArchiveJobState(ctx context.Context, jobID, archivedID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE validation_jobs SET id = ?, updated_at = ? WHERE id = ?`,
		archivedID, time.Now().UTC().Format(time.RFC3339Nano), jobID,
	)
	if err != nil {
		return fmt.Errorf("archive job state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("archive job state: job %s not found", jobID)
	}
	return nil
}

// LatestJobID returns the most recently updated job identifier, or "" when
// no job has ever run.
func (s *Store) LatestJobID(ctx context.Context) (string, error) {
	var id string
	row := s.db.QueryRowContext(ctx, `SELECT id FROM validation_jobs ORDER BY updated_at DESC, id DESC LIMIT 1`)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("latest job id: %w", err)
	}
	return id, nil
}
