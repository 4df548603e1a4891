// Package storage provides the namespaced local blob store backing the
// vault and user-profile persistence.
package storage

import "context"

// Well-known blob keys within a namespace.
const (
	KeyUserProfile = "user-profile"
	KeyVaultData   = "vault-data"
)

// BlobStore stores named byte blobs under a caller-specified namespace.
// Operations are independently idempotent on a per-key basis.
type BlobStore interface {
	// Get returns the blob stored under key, or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the blob under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the blob stored under key, if any.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
