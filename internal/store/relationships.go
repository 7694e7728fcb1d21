package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authorfix/internal/identity"
)

// ListRelationshipsForProfile returns every relationship row naming a profile.
// More than one row is itself an inconsistency the engine repairs.
func (s *Store) ListRelationshipsForProfile(ctx context.Context, profileID int64) ([]identity.Relationship, error) {
	return s.listRelationships(ctx, `SELECT profile_id, group_id FROM relationships WHERE profile_id = ? ORDER BY group_id`, profileID)
}

// ListRelationshipsForGroup returns every relationship row naming a group.
func (s *Store) ListRelationshipsForGroup(ctx context.Context, groupID int64) ([]identity.Relationship, error) {
	return s.listRelationships(ctx, `SELECT profile_id, group_id FROM relationships WHERE group_id = ? ORDER BY profile_id`, groupID)
}

func (s *Store) listRelationships(ctx context.Context, query string, arg int64) ([]identity.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var rels []identity.Relationship
	for rows.Next() {
		var rel identity.Relationship
		if err := rows.Scan(&rel.ProfileID, &rel.GroupID); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// InsertRelationship adds a relationship row unless the exact pairing already
// exists, keeping re-applied repairs no-ops.
func (s *Store) InsertRelationship(ctx context.Context, rel identity.Relationship) error {
	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM relationships WHERE profile_id = ? AND group_id = ?`,
		rel.ProfileID, rel.GroupID,
	)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("check relationship: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (profile_id, group_id) VALUES (?, ?)`,
		rel.ProfileID, rel.GroupID,
	); err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	return nil
}

// DeleteRelationship removes all rows for a pairing, including duplicates.
func (s *Store) DeleteRelationship(ctx context.Context, rel identity.Relationship) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE profile_id = ? AND group_id = ?`,
		rel.ProfileID, rel.GroupID,
	); err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	return nil
}

// GetProfileMeta reads one metadata value for a profile.
func (s *Store) GetProfileMeta(ctx context.Context, profileID int64, key string) (string, bool, error) {
	var value string
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM profile_meta WHERE profile_id = ? AND key = ?`,
		profileID, key,
	)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get profile meta: %w", err)
	}
	return value, true, nil
}

// SetProfileMeta writes one metadata value for a profile.
func (s *Store) SetProfileMeta(ctx context.Context, profileID int64, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO profile_meta (profile_id, key, value, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(profile_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		profileID, key, value, now,
	); err != nil {
		return fmt.Errorf("set profile meta: %w", err)
	}
	return nil
}

// DeleteProfileMeta removes one metadata row.
func (s *Store) DeleteProfileMeta(ctx context.Context, profileID int64, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM profile_meta WHERE profile_id = ? AND key = ?`,
		profileID, key,
	); err != nil {
		return fmt.Errorf("delete profile meta: %w", err)
	}
	return nil
}

// ListProfileMeta returns every metadata row for a profile ordered by key.
func (s *Store) ListProfileMeta(ctx context.Context, profileID int64) ([]identity.ProfileMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile_id, key, value, updated_at FROM profile_meta WHERE profile_id = ? ORDER BY key`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profile meta: %w", err)
	}
	defer rows.Close()

	var metas []identity.ProfileMeta
	for rows.Next() {
		var meta identity.ProfileMeta
		var updatedRaw string
		if err := rows.Scan(&meta.ProfileID, &meta.Key, &meta.Value, &updatedRaw); err != nil {
			return nil, err
		}
		if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
			meta.UpdatedAt = updated
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}
