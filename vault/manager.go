// Package vault implements the data manager: master-key custody, the
// sentinel protocol, encrypted CRUD over records, templates and labels,
// WebDAV-config custody, KDF rotation, and persistence.
package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/passnote/passnote/storage"
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/charmbracelet/log"
)

func errf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Manager owns the in-memory vault, the user profile and the master key.
// No other component reads the raw master-key bytes; collaborators that
// need cryptographic access go through [Manager.Encrypt] and
// [Manager.Decrypt].
//
// Callers must serialize concurrent requests against the same instance.
type Manager struct {
	store     storage.BlobStore
	vault     *vaultdata.Vault
	profile   *vaultdata.UserProfile
	masterKey []byte
	logger    *log.Logger
}

// NewManager creates a manager persisting through the given blob store.
func NewManager(store storage.BlobStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}

	return &Manager{
		store:   store,
		profile: &vaultdata.UserProfile{},
		logger:  logger,
	}
}

// IsInitialized reports whether persistence already contains both the
// vault and the user-profile blobs.
func (m *Manager) IsInitialized(ctx context.Context) (bool, error) {
	for _, key := range []string{storage.KeyVaultData, storage.KeyUserProfile} {
		ok, err := m.store.Exists(ctx, key)
		if err != nil {
			return false, errf("is initialized: %w", err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// Load reads the vault and user profile from persistence.
func (m *Manager) Load(ctx context.Context) error {
	raw, err := m.store.Get(ctx, storage.KeyVaultData)
	if err != nil {
		return errf("load vault: %w", err)
	}

	if raw == nil {
		return errf("load vault: %w", vaulterrors.ErrNotInitialized)
	}

	v := &vaultdata.Vault{}
	if err := json.Unmarshal(raw, v); err != nil {
		return errf("load vault: decode: %w", err)
	}

	v.Normalize()

	profile := &vaultdata.UserProfile{}

	rawProfile, err := m.store.Get(ctx, storage.KeyUserProfile)
	if err != nil {
		return errf("load user profile: %w", err)
	}

	if rawProfile != nil {
		if err := json.Unmarshal(rawProfile, profile); err != nil {
			return errf("load user profile: decode: %w", err)
		}
	}

	m.vault, m.profile = v, profile

	return nil
}

// InitializeVault creates a fresh empty vault: new salt, default Argon2id
// configuration, derived master key and sentinel, then persists both
// blobs. The manager is left unlocked.
func (m *Manager) InitializeVault(ctx context.Context, password []byte) error {
	kdf, err := vaultcrypto.NewKDFConfig()
	if err != nil {
		return errf("initialize vault: %w", err)
	}

	key, err := vaultcrypto.DeriveKey(password, kdf)
	if err != nil {
		return errf("initialize vault: %w", err)
	}

	v := vaultdata.New(kdf)

	sentinel, err := vaultcrypto.Encrypt([]byte(vaultdata.SentinelValue), key)
	if err != nil {
		return errf("initialize vault: sentinel: %w", err)
	}

	v.Sentinel = &sentinel

	m.vault, m.profile, m.masterKey = v, &vaultdata.UserProfile{}, key

	if err := m.persist(ctx); err != nil {
		return errf("initialize vault: %w", err)
	}

	return nil
}

// AdoptVault installs an externally obtained vault (e.g. pulled from the
// remote during first initialization) together with its master key, and
// persists it.
func (m *Manager) AdoptVault(ctx context.Context, v *vaultdata.Vault, key []byte) error {
	v.Normalize()

	if !m.keyValid(v, key) {
		return errf("adopt vault: %w", vaulterrors.ErrInvalidCredentials)
	}

	m.vault, m.masterKey = v, key

	if m.profile == nil {
		m.profile = &vaultdata.UserProfile{}
	}

	if err := m.persist(ctx); err != nil {
		return errf("adopt vault: %w", err)
	}

	return nil
}

// Authenticate derives a key from the vault's own KDF configuration and
// validates it against the sentinel. On success the master key is set.
func (m *Manager) Authenticate(ctx context.Context, password []byte) error {
	if m.vault == nil {
		if err := m.Load(ctx); err != nil {
			return err
		}
	}

	key, err := vaultcrypto.DeriveKey(password, m.vault.KDF)
	if err != nil {
		return errf("authenticate: %w", err)
	}

	if !m.keyValid(m.vault, key) {
		return vaulterrors.ErrInvalidCredentials
	}

	m.masterKey = key

	return nil
}

// keyValid reports whether the key decrypts the vault sentinel to the
// fixed sentinel value.
func (m *Manager) keyValid(v *vaultdata.Vault, key []byte) bool {
	if v.Sentinel == nil {
		return false
	}

	plaintext, err := vaultcrypto.Decrypt(*v.Sentinel, key)
	if err != nil {
		return false
	}

	return string(plaintext) == vaultdata.SentinelValue
}

// ClearMasterKey zeroes and drops the in-memory master key.
func (m *Manager) ClearMasterKey() {
	vaultcrypto.Zero(m.masterKey)
	m.masterKey = nil
}

// IsUnlocked reports whether a master key is present.
func (m *Manager) IsUnlocked() bool {
	return len(m.masterKey) > 0
}

// Vault returns a deep copy of the current vault value for collaborators
// that must not mutate manager-owned state.
func (m *Manager) Vault() *vaultdata.Vault {
	return m.vault.Clone()
}

// KDF returns the vault's current KDF configuration.
func (m *Manager) KDF() vaultcrypto.KDFConfig {
	return m.vault.KDF
}

// History returns the vault's sync-version history.
func (m *Manager) History() []string {
	if m.vault == nil {
		return nil
	}

	return append([]string(nil), m.vault.History...)
}

// Encrypt seals the plaintext under the current master key.
func (m *Manager) Encrypt(plaintext []byte) (vaultcrypto.EncryptedData, error) {
	if !m.IsUnlocked() {
		return vaultcrypto.EncryptedData{}, vaulterrors.ErrLocked
	}

	return vaultcrypto.Encrypt(plaintext, m.masterKey)
}

// Decrypt opens the encrypted value under the current master key.
func (m *Manager) Decrypt(ed vaultcrypto.EncryptedData) ([]byte, error) {
	if !m.IsUnlocked() {
		return nil, vaulterrors.ErrLocked
	}

	return vaultcrypto.Decrypt(ed, m.masterKey)
}

// ReplaceVault swaps in a merged vault produced by the sync engine and
// persists it. The new value must still validate against the current
// master key.
func (m *Manager) ReplaceVault(ctx context.Context, v *vaultdata.Vault) error {
	if !m.IsUnlocked() {
		return vaulterrors.ErrLocked
	}

	v.Normalize()

	if !m.keyValid(v, m.masterKey) {
		return errf("replace vault: %w", vaulterrors.ErrInvalidCredentials)
	}

	m.vault = v

	return m.SaveVault(ctx)
}

// AppendHistory appends a sync-version identifier and persists the vault.
func (m *Manager) AppendHistory(ctx context.Context, version string) error {
	if m.vault == nil {
		return vaulterrors.ErrNotInitialized
	}

	m.vault.History = append(m.vault.History, version)

	return m.SaveVault(ctx)
}

// SaveVault encodes the vault as JSON and writes the vault-data blob.
//
// If the write fails, the in-memory state remains consistent with the new
// intent; the next successful persist catches up.
func (m *Manager) SaveVault(ctx context.Context) error {
	raw, err := json.Marshal(m.vault)
	if err != nil {
		return errf("save vault: encode: %w", err)
	}

	if err := m.store.Put(ctx, storage.KeyVaultData, raw); err != nil {
		return errf("save vault: %w: %w", vaulterrors.ErrStorageIO, err)
	}

	return nil
}

// SaveUserProfile encodes the user profile as JSON and writes the
// user-profile blob.
func (m *Manager) SaveUserProfile(ctx context.Context) error {
	raw, err := json.Marshal(m.profile)
	if err != nil {
		return errf("save user profile: encode: %w", err)
	}

	if err := m.store.Put(ctx, storage.KeyUserProfile, raw); err != nil {
		return errf("save user profile: %w: %w", vaulterrors.ErrStorageIO, err)
	}

	return nil
}

func (m *Manager) persist(ctx context.Context) error {
	if err := m.SaveVault(ctx); err != nil {
		return err
	}

	return m.SaveUserProfile(ctx)
}

// Reset wipes persistence and drops all in-memory state including the
// master key.
func (m *Manager) Reset(ctx context.Context) error {
	for _, key := range []string{storage.KeyVaultData, storage.KeyUserProfile} {
		if err := m.store.Delete(ctx, key); err != nil {
			return errf("reset: %w", err)
		}
	}

	m.ClearMasterKey()
	m.vault, m.profile = nil, &vaultdata.UserProfile{}

	return nil
}

// requireUnlocked guards every data operation.
func (m *Manager) requireUnlocked() error {
	if m.vault == nil {
		return vaulterrors.ErrNotInitialized
	}

	if !m.IsUnlocked() {
		return vaulterrors.ErrLocked
	}

	return nil
}
