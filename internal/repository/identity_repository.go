package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// IdentityRepository persists the append-only local ID to remote UUID map.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Lookup returns the remote UUID for a local ID, or ok=false when unmapped.
func (r *IdentityRepository) Lookup(ctx context.Context, localID string) (string, bool, error) {
	var remoteID string
	err := r.db.QueryRowContext(ctx,
		`SELECT remote_id FROM identity_map WHERE local_id = ?`, localID,
	).Scan(&remoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup identity: %w", err)
	}
	return remoteID, true, nil
}

// Insert records a new mapping. Re-inserting the same pair is a no-op;
// remapping a local ID to a different remote ID is rejected because the map
// is append-only.
func (r *IdentityRepository) Insert(ctx context.Context, localID, remoteID string) error {
	existing, ok, err := r.Lookup(ctx, localID)
	if err != nil {
		return err
	}
	if ok {
		if existing != remoteID {
			return fmt.Errorf("identity map: local id %q already bound", localID)
		}
		return nil
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO identity_map (local_id, remote_id) VALUES (?, ?)`, localID, remoteID); err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}
