package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"elevex/internal/entities"
)

// QuotaRepository persists per-user rolling windows in the local database.
type QuotaRepository struct {
	db *sql.DB
}

func NewQuotaRepository(db *sql.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Get returns the user's window, or ok=false when no consumption was ever
// recorded.
func (r *QuotaRepository) Get(ctx context.Context, userID string) (entities.QuotaWindow, bool, error) {
	var w entities.QuotaWindow
	var startUnix int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, window_start, used FROM quota_windows WHERE user_id = ?`, userID,
	).Scan(&w.UserID, &startUnix, &w.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.QuotaWindow{}, false, nil
	}
	if err != nil {
		return entities.QuotaWindow{}, false, fmt.Errorf("get quota window: %w", err)
	}
	w.WindowStart = time.Unix(startUnix, 0).UTC()
	return w, true, nil
}

// Put upserts the window record.
func (r *QuotaRepository) Put(ctx context.Context, w entities.QuotaWindow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quota_windows (user_id, window_start, used) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET window_start = excluded.window_start, used = excluded.used`,
		w.UserID, w.WindowStart.Unix(), w.Used)
	if err != nil {
		return fmt.Errorf("put quota window: %w", err)
	}
	return nil
}

// Delete removes the user's window, resetting them to a clean slate.
func (r *QuotaRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quota_windows WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete quota window: %w", err)
	}
	return nil
}
