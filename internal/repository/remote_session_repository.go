package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elevex/internal/entities"
	"elevex/internal/interfaces"
)

// RemoteSessionRepository is the durable session store backed by Postgres.
type RemoteSessionRepository struct {
	pool *pgxpool.Pool
}

func NewRemoteSessionRepository(pool *pgxpool.Pool) *RemoteSessionRepository {
	return &RemoteSessionRepository{pool: pool}
}

// UpsertSession writes the session header.
func (r *RemoteSessionRepository) UpsertSession(ctx context.Context, s entities.ChatSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, user_id, agent_id, title, preview, is_archived, last_message_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			title = EXCLUDED.title,
			preview = EXCLUDED.preview,
			is_archived = EXCLUDED.is_archived,
			last_message_at = EXCLUDED.last_message_at`,
		s.ID, s.UserID, s.AgentID, s.Title, s.Preview, s.IsArchived, s.LastMessageAt)
	if err != nil {
		return fmt.Errorf("%w: upsert session: %v", interfaces.ErrSyncUnavailable, err)
	}
	return nil
}

// ReplaceMessages deletes the session's stored messages and inserts the
// given set in one transaction. The local copy is the source of truth, so a
// full replace is simpler and safer than diffing.
func (r *RemoteSessionRepository) ReplaceMessages(ctx context.Context, sessionID string, msgs []entities.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin replace: %v", interfaces.ErrSyncUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: clear messages: %v", interfaces.ErrSyncUnavailable, err)
	}
	for _, m := range msgs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO messages (id, session_id, role, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, sessionID, m.Role, m.Text, m.Timestamp); err != nil {
			return fmt.Errorf("%w: insert message: %v", interfaces.ErrSyncUnavailable, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit replace: %v", interfaces.ErrSyncUnavailable, err)
	}
	return nil
}

// DeleteSession removes the session and, via cascade, its messages.
func (r *RemoteSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: delete session: %v", interfaces.ErrSyncUnavailable, err)
	}
	return nil
}

// ListSessionsForUser returns session headers, most recent first. Messages
// are not loaded here; PullAll fetches them per session.
func (r *RemoteSessionRepository) ListSessionsForUser(ctx context.Context, userID string) ([]entities.ChatSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, agent_id, title, preview, is_archived, last_message_at
		 FROM chat_sessions WHERE user_id = $1 ORDER BY last_message_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", interfaces.ErrSyncUnavailable, err)
	}
	defer rows.Close()

	var out []entities.ChatSession
	for rows.Next() {
		var s entities.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.AgentID, &s.Title, &s.Preview, &s.IsArchived, &s.LastMessageAt); err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", interfaces.ErrSyncUnavailable, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListMessages returns the session's messages in chronological order.
func (r *RemoteSessionRepository) ListMessages(ctx context.Context, sessionID string) ([]entities.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, role, text, created_at FROM messages WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list messages: %v", interfaces.ErrSyncUnavailable, err)
	}
	defer rows.Close()

	var out []entities.Message
	for rows.Next() {
		var m entities.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", interfaces.ErrSyncUnavailable, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
