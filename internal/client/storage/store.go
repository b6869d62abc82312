// Package storage persists the client's single user record (with optional
// embedded session) behind a narrow interface. All mutations read, merge,
// and write the whole record inside one transaction so an interleaved
// unrelated update is never clobbered.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"invisiblewallet/internal/client/models"
	"invisiblewallet/internal/dbx"
)

// Store is the local persisted store for the cached user record.
type Store interface {
	// GetUser returns the stored record, or nil when none exists.
	GetUser(ctx context.Context) (*models.UserRecord, error)

	// MergeUser applies mutate to the current record (an empty record when
	// none exists) and persists the result atomically. It returns the
	// record as written.
	MergeUser(ctx context.Context, mutate func(*models.UserRecord)) (*models.UserRecord, error)

	// ClearSession removes session data if present; no-op otherwise.
	ClearSession(ctx context.Context) error

	// Clear wipes the whole record (logout).
	Clear(ctx context.Context) error
}

const userKey = "user"

// SQLiteStore keeps the record as a JSON value in a single-row kv table.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the local store at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("local store open: %w", err)
	}
	// Serialize all access; the store is a single record, contention is nil.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("local store init: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, q dbx.DBTX) (*models.UserRecord, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, userKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local store read: %w", err)
	}

	var u models.UserRecord
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("local store decode: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) put(ctx context.Context, q dbx.DBTX, u *models.UserRecord) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("local store encode: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		userKey, string(raw))
	if err != nil {
		return fmt.Errorf("local store write: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context) (*models.UserRecord, error) {
	return s.get(ctx, s.db)
}

func (s *SQLiteStore) MergeUser(ctx context.Context, mutate func(*models.UserRecord)) (*models.UserRecord, error) {
	var out *models.UserRecord
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		if u == nil {
			u = &models.UserRecord{}
		}
		mutate(u)
		if err := s.put(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.get(ctx, tx)
		if err != nil || u == nil {
			return err
		}
		if u.Session == nil {
			return nil
		}
		u.Session = nil
		return s.put(ctx, tx, u)
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, userKey)
	if err != nil {
		return fmt.Errorf("local store clear: %w", err)
	}
	return nil
}
