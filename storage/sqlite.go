package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/ladzaretti/migrate"

	// Package sqlite is a CGo-free port of SQLite/SQLite3.
	_ "modernc.org/sqlite"
)

const pragma = `
PRAGMA temp_store = MEMORY;
PRAGMA synchronous = EXTRA;
PRAGMA foreign_keys = ON;
`

var (
	//go:embed migrations/sqlite
	embedFS embed.FS

	embeddedMigrations = migrate.EmbeddedMigrations{
		FS:   embedFS,
		Path: "migrations/sqlite",
	}
)

func errf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// SQLiteStore is a [BlobStore] backed by a single sqlite database file.
// Multiple namespaces share one file.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

// OpenSQLite opens (creating if needed) the blob database at path and
// returns a store scoped to the given namespace.
func OpenSQLite(path, namespace string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errf("sqlite open: %w", err)
	}

	if _, err := db.Exec(pragma); err != nil {
		return nil, errors.Join(errf("sqlite pragma: %w", err), db.Close())
	}

	m := migrate.New(db, migrate.SQLiteDialect{})

	if _, err := m.Apply(embeddedMigrations); err != nil {
		return nil, errors.Join(errf("sqlite migration: %w", err), db.Close())
	}

	return &SQLiteStore{db: db, namespace: namespace}, nil
}

// WithNamespace returns a store sharing the same database scoped to a
// different namespace.
func (s *SQLiteStore) WithNamespace(namespace string) *SQLiteStore {
	return &SQLiteStore{db: s.db, namespace: namespace}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectBlob = `
	SELECT
		data
	FROM
		blobs
	WHERE
		namespace = $1 AND key = $2
`

// Get returns the blob stored under key, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx, selectBlob, s.namespace, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, errf("blob get: %w", err)
	}

	return data, nil
}

const upsertBlob = `
	INSERT INTO
		blobs (namespace, key, data, updated_at)
	VALUES
		($1, $2, $3, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	ON CONFLICT (namespace, key) DO UPDATE
	SET
		data = excluded.data,
		updated_at = excluded.updated_at
`

// Put stores the blob under key, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertBlob, s.namespace, key, data); err != nil {
		return errf("blob put: %w", err)
	}

	return nil
}

const deleteBlob = `
	DELETE FROM blobs
	WHERE
		namespace = $1 AND key = $2
`

// Delete removes the blob stored under key, if any.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteBlob, s.namespace, key); err != nil {
		return errf("blob delete: %w", err)
	}

	return nil
}

const countBlob = `
	SELECT
		COUNT(1)
	FROM
		blobs
	WHERE
		namespace = $1 AND key = $2
`

// Exists reports whether a blob is stored under key.
func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int

	if err := s.db.QueryRowContext(ctx, countBlob, s.namespace, key).Scan(&n); err != nil {
		return false, errf("blob exists: %w", err)
	}

	return n > 0, nil
}

var _ BlobStore = (*SQLiteStore)(nil)
