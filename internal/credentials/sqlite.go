package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite

	"mymemo-client/internal/domain"
)

// Keys under which the user record and the token are stored.
const (
	userKey  = "user"
	tokenKey = "api-token"
)

// SQLiteStore keeps credentials in a local SQLite file so they survive restarts.
type SQLiteStore struct {
	db  *sql.DB
	dsn string
}

// NewSQLiteStore creates a store backed by the database at dsn. Call Open before use.
func NewSQLiteStore(dsn string) *SQLiteStore {
	return &SQLiteStore{dsn: dsn}
}

// Open opens the database and creates the table if needed.
func (s *SQLiteStore) Open() error {
	if s.dsn == "" {
		return fmt.Errorf("dsn required")
	}

	// Make the parent directory unless using an in-memory db.
	if s.dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0700); err != nil {
			return err
		}
	}

	var err error
	if s.db, err = sql.Open("sqlite3", s.dsn); err != nil {
		return err
	}
	// Every connection to :memory: is a separate database.
	s.db.SetMaxOpenConns(1)

	if _, err := s.db.Exec(`PRAGMA journal_mode = wal;`); err != nil {
		return fmt.Errorf("enable wal: %w", err)
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS credential (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create credential table: %w", err)
	}
	return nil
}

// Close closes the connection to the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the stored credentials, or ErrNoCredentials when there is no token.
func (s *SQLiteStore) Get(ctx context.Context) (Credentials, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Credentials{}, err
	}
	defer tx.Rollback()

	token, err := get(ctx, tx, tokenKey)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{Token: token}
	raw, err := get(ctx, tx, userKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Credentials{}, err
	default:
		if err := json.Unmarshal([]byte(raw), &creds.User); err != nil {
			return Credentials{}, fmt.Errorf("decode stored user: %w", err)
		}
	}
	return creds, nil
}

// Put stores the user record and token in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, creds Credentials) error {
	user, err := json.Marshal(domain.User{Username: creds.User.Username})
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := put(ctx, tx, userKey, string(user)); err != nil {
		return err
	}
	if err := put(ctx, tx, tokenKey, creds.Token); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear removes the user record and token in one transaction.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credential WHERE key IN (?, ?)`, userKey, tokenKey); err != nil {
		return err
	}
	return tx.Commit()
}

func get(ctx context.Context, tx *sql.Tx, key string) (string, error) {
	var value string
	err := tx.QueryRowContext(ctx, `SELECT value FROM credential WHERE key = ?`, key).Scan(&value)
	return value, err
}

func put(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO credential (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
