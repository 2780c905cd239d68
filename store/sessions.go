package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Session is a server-side login session. TokenJSON holds the serialized
// OAuth token; the cookie only ever carries the opaque session id.
type Session struct {
	ID               string
	TokenJSON        string
	UserName         string
	UserEmail        string
	UserPermissionID string
	CreatedAt        int64
	ExpiresAt        int64
}

// SessionStore manages rows in the sessions table.
type SessionStore struct {
	db *sql.DB
}

// Create inserts a session with the given time-to-live.
func (s *SessionStore) Create(sess *Session, ttl time.Duration) error {
	now := time.Now()
	sess.CreatedAt = now.Unix()
	sess.ExpiresAt = now.Add(ttl).Unix()

	const query = `
		INSERT INTO sessions
			(id, token_json, user_name, user_email, user_permission_id, created_at, expires_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		sess.ID,
		sess.TokenJSON,
		sess.UserName,
		sess.UserEmail,
		sess.UserPermissionID,
		sess.CreatedAt,
		sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns the session with the given id. Expired sessions are treated
// as absent.
func (s *SessionStore) Get(id string) (*Session, error) {
	const query = `
		SELECT id, token_json, user_name, user_email, user_permission_id, created_at, expires_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`
	var sess Session
	err := s.db.QueryRow(query, id, time.Now().Unix()).Scan(
		&sess.ID, &sess.TokenJSON, &sess.UserName, &sess.UserEmail,
		&sess.UserPermissionID, &sess.CreatedAt, &sess.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session with the given id. Deleting an unknown id is
// not an error.
func (s *SessionStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes all sessions past their expiry and returns how many
// were deleted.
func (s *SessionStore) PurgeExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

// StartPurgeLoop purges expired sessions on the given interval until ctx is
// cancelled. Intended to run as a background goroutine.
func (s *SessionStore) StartPurgeLoop(ctx context.Context, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired()
			if err != nil {
				log.Error("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("purged expired sessions", "count", n)
			}
		}
	}
}
