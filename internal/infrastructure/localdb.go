package infrastructure

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenLocalDB opens the on-device sqlite database and applies the schema.
// WAL keeps readers unblocked while the sync loop writes.
func OpenLocalDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping local db: %w", err)
	}
	if err := initLocalSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func initLocalSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS quota_windows (
	user_id TEXT PRIMARY KEY,
	window_start INTEGER NOT NULL,
	used INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS identity_map (
	local_id TEXT PRIMARY KEY,
	remote_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS session_cache (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	last_message_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_session_cache_user ON session_cache(user_id, last_message_at DESC);
CREATE TABLE IF NOT EXISTS plan_overrides (
	plan_id TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS linked_devices (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	linked_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_linked_devices_user ON linked_devices(user_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init local schema: %w", err)
	}
	return nil
}
