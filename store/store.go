// Package store provides SQLite persistence for the site registry and
// server-side sessions.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the shared database handle. SiteStore and SessionStore are
// views over the same connection pool.
type Store struct {
	db *sql.DB
}

const createSitesTable = `
CREATE TABLE IF NOT EXISTS sites (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    folder_type TEXT NOT NULL DEFAULT 'GoogleDrive',
    folder_link TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    qr_url TEXT NOT NULL DEFAULT '',
    qr_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    created_by TEXT NOT NULL DEFAULT ''
);
`

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    token_json TEXT NOT NULL,
    user_name TEXT NOT NULL DEFAULT '',
    user_email TEXT NOT NULL DEFAULT '',
    user_permission_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_sites_created_at ON sites(created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

// Open opens (or creates) the SQLite database at dbPath, initialises the
// schema, and returns a ready-to-use Store.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{
		createSitesTable,
		createSessionsTable,
		createIndexes,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Sites returns the site registry view of the store.
func (s *Store) Sites() *SiteStore {
	return &SiteStore{db: s.db}
}

// Sessions returns the session view of the store.
func (s *Store) Sessions() *SessionStore {
	return &SessionStore{db: s.db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
