package vault

import (
	"context"
	"encoding/json"

	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"
)

// SetWebDAVConfig encrypts the JSON-serialized config under the master
// key and stores it in the user profile.
func (m *Manager) SetWebDAVConfig(ctx context.Context, cfg remote.Config) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return errf("set webdav config: encode: %w", err)
	}

	ed, err := m.Encrypt(raw)
	if err != nil {
		return errf("set webdav config: %w", err)
	}

	m.profile.WebDAV = &vaultdata.WebDAVConfigBlob{EncryptedData: ed}

	return m.SaveUserProfile(ctx)
}

// WebDAVConfig decrypts the stored config. It returns
// [vaulterrors.ErrWebDAVNotConfigured] when no usable config is stored.
func (m *Manager) WebDAVConfig(_ context.Context) (remote.Config, error) {
	if err := m.requireUnlocked(); err != nil {
		return remote.Config{}, err
	}

	if m.profile.WebDAV == nil {
		return remote.Config{}, vaulterrors.ErrWebDAVNotConfigured
	}

	raw, err := m.Decrypt(m.profile.WebDAV.EncryptedData)
	if err != nil {
		return remote.Config{}, errf("webdav config: %w", err)
	}

	var cfg remote.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return remote.Config{}, errf("webdav config: decode: %w", err)
	}

	if cfg.Empty() {
		return remote.Config{}, vaulterrors.ErrWebDAVNotConfigured
	}

	return cfg, nil
}

// ClearWebDAVConfig replaces the stored config with an encryption of the
// empty-field form.
func (m *Manager) ClearWebDAVConfig(ctx context.Context) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	raw, err := json.Marshal(remote.Config{})
	if err != nil {
		return errf("clear webdav config: encode: %w", err)
	}

	ed, err := m.Encrypt(raw)
	if err != nil {
		return errf("clear webdav config: %w", err)
	}

	m.profile.WebDAV = &vaultdata.WebDAVConfigBlob{EncryptedData: ed}

	return m.SaveUserProfile(ctx)
}
