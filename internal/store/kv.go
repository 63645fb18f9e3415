package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by KV.Load when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// KV is the raw byte-level key-value contract the Adapter persists through.
// Implemented by *Store (SQLite) and *Memory (tests, dry runs).
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context) ([]string, error)
}

// Entry is a kv row.
type Entry struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	Revision  int64  `db:"revision"`
	UpdatedAt string `db:"updated_at"`
}

// Load returns the value stored under key, or ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	e, err := s.Entry(ctx, key)
	if err != nil {
		return nil, err
	}
	return []byte(e.Value), nil
}

// Entry returns the full row for key, or ErrNotFound.
func (s *Store) Entry(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e, `
		SELECT key, value, revision, updated_at
		FROM kv
		WHERE key = ?
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, errors.Wrapf(err, "load %q", key)
	}
	return e, nil
}

// Save upserts value under key and bumps the row revision.
// Last writer wins; there is no compare-and-swap.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, revision, updated_at)
		VALUES (?, ?, 1, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = kv.revision + 1,
			updated_at = excluded.updated_at
	`, key, string(value))
	if err != nil {
		return errors.Wrapf(err, "save %q", key)
	}
	return nil
}

// Keys lists every stored key in byte order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM kv ORDER BY key COLLATE BINARY`); err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	return keys, nil
}
