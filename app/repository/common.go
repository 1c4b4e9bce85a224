package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
)

const (
	KeyUsers            = "users"
	KeyPaymentLedger    = "paymentLedger"
	KeySessionPrefix    = "currentSessionUser"
	sessionKeySeparator = ":"
)

var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrCorruptDocument   = errors.New("stored document is corrupt")
	ErrUserNotFound      = errors.New("user record not found")
	ErrUserAlreadyExists = errors.New("user record already exists")
)

// KVStore is the local key-value scope backing the registry, the ledger and session
// copies. Values are opaque JSON documents.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by stores that can report writes made by other processes.
// onChange receives the key that changed. Watch blocks until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, onChange func(key string)) error
}

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func SessionKey(sessionID string) string {
	return KeySessionPrefix + sessionKeySeparator + sessionID
}

// IsEntitlementKey reports whether a changed key can affect entitlement state.
func IsEntitlementKey(key string) bool {
	return key == KeyUsers || key == KeyPaymentLedger || strings.HasPrefix(key, KeySessionPrefix+sessionKeySeparator)
}

func escapeKey(key string) string {
	return url.PathEscape(key)
}

func unescapeKey(name string) (string, bool) {
	key, err := url.PathUnescape(name)
	if err != nil {
		return "", false
	}
	return key, true
}
