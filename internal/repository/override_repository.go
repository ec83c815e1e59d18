package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"elevex/internal/entities"
)

// OverrideRepository persists admin plan edits in the local database.
type OverrideRepository struct {
	db *sql.DB
}

func NewOverrideRepository(db *sql.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// LoadAll returns every stored override keyed by plan ID.
func (r *OverrideRepository) LoadAll(ctx context.Context) (map[string]entities.PlanOverride, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT plan_id, payload FROM plan_overrides`)
	if err != nil {
		return nil, fmt.Errorf("load plan overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[string]entities.PlanOverride)
	for rows.Next() {
		var planID, payload string
		if err := rows.Scan(&planID, &payload); err != nil {
			return nil, fmt.Errorf("scan plan override: %w", err)
		}
		var o entities.PlanOverride
		if err := json.Unmarshal([]byte(payload), &o); err != nil {
			return nil, fmt.Errorf("decode plan override %s: %w", planID, err)
		}
		out[planID] = o
	}
	return out, rows.Err()
}

// SaveAll replaces the stored override set wholesale.
func (r *OverrideRepository) SaveAll(ctx context.Context, overrides map[string]entities.PlanOverride) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save plan overrides: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_overrides`); err != nil {
		return fmt.Errorf("save plan overrides: clear: %w", err)
	}
	for planID, o := range overrides {
		payload, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("save plan overrides: encode %s: %w", planID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plan_overrides (plan_id, payload) VALUES (?, ?)`, planID, string(payload)); err != nil {
			return fmt.Errorf("save plan overrides: insert %s: %w", planID, err)
		}
	}
	return tx.Commit()
}
