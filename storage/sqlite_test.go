package storage_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/passnote/passnote/storage"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "passnote.db"), "default")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Get(ctx, storage.KeyVaultData)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}

	if got != nil {
		t.Errorf("get missing blob: got %q, want nil", got)
	}

	ok, err := store.Exists(ctx, storage.KeyVaultData)
	if err != nil || ok {
		t.Errorf("exists on missing blob: got (%v, %v), want (false, nil)", ok, err)
	}

	want := []byte(`{"records":{}}`)
	if err := store.Put(ctx, storage.KeyVaultData, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err = store.Get(ctx, storage.KeyVaultData)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	// overwrite is last-write-wins.
	want = []byte(`{"records":{"r1":{}}}`)
	if err := store.Put(ctx, storage.KeyVaultData, want); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}

	got, err = store.Get(ctx, storage.KeyVaultData)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}

	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if err := store.Delete(ctx, storage.KeyVaultData); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ok, err = store.Exists(ctx, storage.KeyVaultData)
	if err != nil || ok {
		t.Errorf("exists after delete: got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSQLiteStoreNamespaces(t *testing.T) {
	ctx := context.Background()

	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "passnote.db"), "alpha")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	other := store.WithNamespace("beta")

	if err := store.Put(ctx, storage.KeyUserProfile, []byte("alpha-profile")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := other.Get(ctx, storage.KeyUserProfile)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got != nil {
		t.Errorf("namespace leak: got %q, want nil", got)
	}
}
