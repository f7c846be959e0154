// Package nntpuser is a small NNTP-auth helper: local accounts the
// engine's own NNTP-serving surface can authenticate posters and
// readers against, independent of any upstream server's own
// credentials.
//
// Accounts are bcrypt-hashed on insert/update, verified with
// CompareHashAndPassword on authenticate, and either soft-deleted via an
// is_active flag (Deactivate) or removed outright (Delete). This module owns no
// web-session concept, so there is no session-table bookkeeping here.
package nntpuser

import (
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is one local NNTP account.
type User struct {
	ID        int64
	Username  string
	MaxConns  int
	Posting   bool
	CreatedAt time.Time
	LastLogin time.Time
	Active    bool
}

// Store owns the nntp_users table on a shared *sql.DB connection.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS nntp_users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	max_conns INTEGER NOT NULL DEFAULT 1,
	posting INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_login DATETIME,
	is_active INTEGER NOT NULL DEFAULT 1
);
`

// Open creates the nntp_users table on db if absent and returns a Store
// over it. db is expected to be shared with the rest of the engine's
// sqlite connection, following a single-main-database convention.
func Open(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("nntpuser: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateUser inserts a new account, hashing password with bcrypt at the
// library's default cost.
func (s *Store) CreateUser(username, password string, maxConns int, posting bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("nntpuser: hash password: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO nntp_users (username, password_hash, max_conns, posting) VALUES (?, ?, ?, ?)`,
		username, string(hash), maxConns, posting,
	)
	if err != nil {
		return fmt.Errorf("nntpuser: insert %q: %w", username, err)
	}
	return nil
}

// Get returns username's account, or sql.ErrNoRows if it doesn't exist
// or has been deactivated.
func (s *Store) Get(username string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, username, max_conns, posting, created_at, last_login, is_active
		 FROM nntp_users WHERE username = ? AND is_active = 1`,
		username,
	)
	var u User
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.MaxConns, &u.Posting, &u.CreatedAt, &lastLogin, &u.Active); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}

// Authenticate verifies password against username's stored bcrypt hash,
// updating last_login on success.
func (s *Store) Authenticate(username, password string) (*User, error) {
	row := s.db.QueryRow(`SELECT password_hash FROM nntp_users WHERE username = ? AND is_active = 1`, username)
	var hash string
	if err := row.Scan(&hash); err != nil {
		return nil, fmt.Errorf("nntpuser: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, fmt.Errorf("nntpuser: invalid password")
	}
	if _, err := s.db.Exec(`UPDATE nntp_users SET last_login = CURRENT_TIMESTAMP WHERE username = ?`, username); err != nil {
		return nil, fmt.Errorf("nntpuser: update last_login: %w", err)
	}
	return s.Get(username)
}

// SetPassword replaces username's stored hash.
func (s *Store) SetPassword(username, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("nntpuser: hash password: %w", err)
	}
	_, err = s.db.Exec(`UPDATE nntp_users SET password_hash = ? WHERE username = ?`, string(hash), username)
	return err
}

// SetPermissions updates maxConns/posting for username.
func (s *Store) SetPermissions(username string, maxConns int, posting bool) error {
	_, err := s.db.Exec(`UPDATE nntp_users SET max_conns = ?, posting = ? WHERE username = ?`, maxConns, posting, username)
	return err
}

// Deactivate soft-deletes username.
func (s *Store) Deactivate(username string) error {
	_, err := s.db.Exec(`UPDATE nntp_users SET is_active = 0 WHERE username = ?`, username)
	return err
}

// Activate reverses Deactivate.
func (s *Store) Activate(username string) error {
	_, err := s.db.Exec(`UPDATE nntp_users SET is_active = 1 WHERE username = ?`, username)
	return err
}

// Delete permanently removes username's account.
func (s *Store) Delete(username string) error {
	_, err := s.db.Exec(`DELETE FROM nntp_users WHERE username = ?`, username)
	return err
}
