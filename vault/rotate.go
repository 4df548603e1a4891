package vault

import (
	"context"

	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"
)

// UpdateKDFConfig rotates the vault to a new KDF configuration:
// every live ciphertext, the sentinel and the stored WebDAV config are
// decrypted under the old derived key and re-encrypted under the new one.
//
// The rotation runs on a working copy; in-memory and persisted state
// change only when every step succeeded.
func (m *Manager) UpdateKDFConfig(ctx context.Context, newCfg vaultcrypto.KDFConfig, password []byte) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	if err := newCfg.Validate(); err != nil {
		return err
	}

	if vaultcrypto.Compatible(m.vault.KDF, newCfg) {
		return vaulterrors.ErrIdenticalKDFConfig
	}

	oldKey, err := vaultcrypto.DeriveKey(password, m.vault.KDF)
	if err != nil {
		return errf("kdf rotation: %w", err)
	}

	if !m.keyValid(m.vault, oldKey) {
		return vaulterrors.ErrInvalidCredentials
	}

	newKey, err := vaultcrypto.DeriveKey(password, newCfg)
	if err != nil {
		return errf("kdf rotation: %w", err)
	}

	work := m.vault.Clone()
	workProfile := &vaultdata.UserProfile{WebDAV: m.profile.WebDAV}

	for id, r := range work.Records {
		if r == nil || r.Deleted {
			continue
		}

		if r.Title != nil {
			reencrypted, err := reencrypt(*r.Title, oldKey, newKey)
			if err != nil {
				return errf("kdf rotation: record %s: title: %w", id, err)
			}

			r.Title = &reencrypted
		}

		for fid, ed := range r.Fields {
			reencrypted, err := reencrypt(ed, oldKey, newKey)
			if err != nil {
				return errf("kdf rotation: record %s: field %s: %w", id, fid, err)
			}

			r.Fields[fid] = reencrypted
		}
	}

	for id, ed := range work.Labels {
		reencrypted, err := reencrypt(ed, oldKey, newKey)
		if err != nil {
			return errf("kdf rotation: label %s: %w", id, err)
		}

		work.Labels[id] = reencrypted
	}

	for id, ed := range work.Templates {
		reencrypted, err := reencrypt(ed, oldKey, newKey)
		if err != nil {
			return errf("kdf rotation: template %s: %w", id, err)
		}

		work.Templates[id] = reencrypted
	}

	sentinel, err := vaultcrypto.Encrypt([]byte(vaultdata.SentinelValue), newKey)
	if err != nil {
		return errf("kdf rotation: sentinel: %w", err)
	}

	work.Sentinel = &sentinel

	if m.profile.WebDAV != nil {
		reencrypted, err := reencrypt(m.profile.WebDAV.EncryptedData, oldKey, newKey)
		if err != nil {
			return errf("kdf rotation: webdav config: %w", err)
		}

		workProfile.WebDAV = &vaultdata.WebDAVConfigBlob{EncryptedData: reencrypted}
	}

	work.KDF = newCfg

	// all decrypts succeeded; swap references and persist.
	m.vault, m.profile = work, workProfile

	vaultcrypto.Zero(m.masterKey)
	m.masterKey = newKey

	if err := m.persist(ctx); err != nil {
		return errf("kdf rotation: %w", err)
	}

	return nil
}

func reencrypt(ed vaultcrypto.EncryptedData, oldKey, newKey []byte) (vaultcrypto.EncryptedData, error) {
	plaintext, err := vaultcrypto.Decrypt(ed, oldKey)
	if err != nil {
		return vaultcrypto.EncryptedData{}, err
	}

	return vaultcrypto.Encrypt(plaintext, newKey)
}
