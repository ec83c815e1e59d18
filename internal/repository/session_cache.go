package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"elevex/internal/entities"
	"elevex/internal/interfaces"
)

// SessionCacheRepository is the local-first session store. Sessions are kept
// whole as JSON payloads; reads and writes never wait on the network.
type SessionCacheRepository struct {
	db *sql.DB
}

func NewSessionCacheRepository(db *sql.DB) *SessionCacheRepository {
	return &SessionCacheRepository{db: db}
}

// Get loads one session by ID.
func (r *SessionCacheRepository) Get(ctx context.Context, id string) (entities.ChatSession, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM session_cache WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.ChatSession{}, interfaces.ErrSessionNotFound
	}
	if err != nil {
		return entities.ChatSession{}, fmt.Errorf("get cached session: %w", err)
	}
	var s entities.ChatSession
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return entities.ChatSession{}, fmt.Errorf("decode cached session: %w", err)
	}
	return s, nil
}

// Put upserts one session.
func (r *SessionCacheRepository) Put(ctx context.Context, s entities.ChatSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO session_cache (id, user_id, payload, last_message_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, payload = excluded.payload,
		 last_message_at = excluded.last_message_at`,
		s.ID, s.UserID, string(payload), s.LastMessageAt.Unix())
	if err != nil {
		return fmt.Errorf("put cached session: %w", err)
	}
	return nil
}

// Delete removes one session from the cache.
func (r *SessionCacheRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_cache WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete cached session: %w", err)
	}
	return nil
}

// ListForUser returns the user's sessions, most recent first.
func (r *SessionCacheRepository) ListForUser(ctx context.Context, userID string) ([]entities.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM session_cache WHERE user_id = ? ORDER BY last_message_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cached sessions: %w", err)
	}
	defer rows.Close()

	var out []entities.ChatSession
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan cached session: %w", err)
		}
		var s entities.ChatSession
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("decode cached session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceForUser swaps the user's entire cached slice for the given set,
// used when a remote pull wins over local state.
func (r *SessionCacheRepository) ReplaceForUser(ctx context.Context, userID string, sessions []entities.ChatSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace sessions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_cache WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("replace sessions: clear: %w", err)
	}
	for _, s := range sessions {
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("replace sessions: encode %s: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_cache (id, user_id, payload, last_message_at) VALUES (?, ?, ?, ?)`,
			s.ID, s.UserID, string(payload), s.LastMessageAt.Unix()); err != nil {
			return fmt.Errorf("replace sessions: insert %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}
