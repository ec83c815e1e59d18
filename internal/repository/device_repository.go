package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrDeviceNotFound = errors.New("device not found")

// LinkedDevice is one device authorized against a user account.
type LinkedDevice struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	LinkedAt time.Time `json:"linked_at"`
}

// DeviceRepository tracks devices linked via pairing tokens. The plan's
// device limit is enforced against this table.
type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// CountForUser returns how many devices the user has linked.
func (r *DeviceRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM linked_devices WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return n, nil
}

// Add records one linked device.
func (r *DeviceRepository) Add(ctx context.Context, d LinkedDevice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO linked_devices (id, user_id, name, linked_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.UserID, d.Name, d.LinkedAt.Unix())
	if err != nil {
		return fmt.Errorf("add device: %w", err)
	}
	return nil
}

// ListForUser returns the user's linked devices, oldest first.
func (r *DeviceRepository) ListForUser(ctx context.Context, userID string) ([]LinkedDevice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, linked_at FROM linked_devices WHERE user_id = ? ORDER BY linked_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []LinkedDevice
	for rows.Next() {
		var d LinkedDevice
		var linkedUnix int64
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &linkedUnix); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.LinkedAt = time.Unix(linkedUnix, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// Remove unlinks one device. Scoped by owner so one user cannot unlink
// another's device.
func (r *DeviceRepository) Remove(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM linked_devices WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("remove device: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
