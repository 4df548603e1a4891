package remote

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/passnote/passnote/vaulterrors"

	"github.com/studio-b12/gowebdav"
)

const defaultTimeout = 30 * time.Second

// WebDAVStore is a [Store] backed by a WebDAV server.
type WebDAVStore struct {
	client *gowebdav.Client
}

// NewWebDAVStore connects a WebDAV client using the given config.
func NewWebDAVStore(cfg Config) *WebDAVStore {
	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	client.SetTimeout(defaultTimeout)

	return &WebDAVStore{client: client}
}

// Connect verifies the server is reachable with the configured
// credentials.
func (s *WebDAVStore) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("webdav connect: %w: %w", vaulterrors.ErrRemoteUnreachable, err)
	}

	return nil
}

// Exists reports whether a blob exists at path.
func (s *WebDAVStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := s.client.Stat(path); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("webdav stat %q: %w: %w", path, vaulterrors.ErrRemoteUnreachable, err)
	}

	return true, nil
}

// Get fetches the blob at path.
func (s *WebDAVStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.client.Read(path)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("webdav read %q: %w", path, os.ErrNotExist)
		}

		return nil, fmt.Errorf("webdav read %q: %w: %w", path, vaulterrors.ErrRemoteUnreachable, err)
	}

	return data, nil
}

// Put writes the blob at path, replacing any previous content.
func (s *WebDAVStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.Write(path, data, 0o600); err != nil {
		return fmt.Errorf("webdav write %q: %w: %w", path, vaulterrors.ErrRemoteUnreachable, err)
	}

	return nil
}

// MkdirAll creates the directory hierarchy for dir.
func (s *WebDAVStore) MkdirAll(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("webdav mkdir %q: %w: %w", dir, vaulterrors.ErrRemoteUnreachable, err)
	}

	return nil
}

// Delete removes the blob at path.
func (s *WebDAVStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.Remove(path); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil
		}

		return fmt.Errorf("webdav remove %q: %w: %w", path, vaulterrors.ErrRemoteUnreachable, err)
	}

	return nil
}

var _ Store = (*WebDAVStore)(nil)
