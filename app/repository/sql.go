package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// SQLStore keeps every key as one row of kv_entries.
type SQLStore struct {
	db      DBTX
	dialect Dialect
	now     func() time.Time
}

func NewSQLStore(db DBTX, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = `
			CREATE TABLE IF NOT EXISTS kv_entries (
				entry_key   VARCHAR(191) NOT NULL PRIMARY KEY,
				entry_value LONGBLOB     NOT NULL,
				updated_at  DATETIME(6)  NOT NULL
			)
		`
	case DialectSQLite:
		query = `
			CREATE TABLE IF NOT EXISTS kv_entries (
				entry_key   TEXT      NOT NULL PRIMARY KEY,
				entry_value BLOB      NOT NULL,
				updated_at  TIMESTAMP NOT NULL
			)
		`
	default:
		return fmt.Errorf("unsupported sql dialect %q", s.dialect)
	}

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT entry_value
		FROM kv_entries
		WHERE entry_key = ?
	`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value, s.now())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := `
		DELETE FROM kv_entries
		WHERE entry_key = ?
	`

	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

func (s *SQLStore) upsertQuery() string {
	if s.dialect == DialectMySQL {
		return `
			INSERT INTO kv_entries (entry_key, entry_value, updated_at)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value), updated_at = VALUES(updated_at)
		`
	}
	return `
		INSERT INTO kv_entries (entry_key, entry_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at
	`
}
