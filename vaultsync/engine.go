// Package vaultsync implements the push/pull synchronization engine:
// fetch, KDF comparison, merge, and write-back against a remote blob
// store.
package vaultsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Crypter provides encryption under the locally held master key without
// exposing the raw key bytes to the engine.
type Crypter interface {
	Encrypt(plaintext []byte) (vaultcrypto.EncryptedData, error)
	Decrypt(ed vaultcrypto.EncryptedData) ([]byte, error)
}

// Engine synchronizes a local vault with a single remote blob.
type Engine struct {
	store  remote.Store
	path   string
	logger *log.Logger
}

// New creates a sync engine writing the remote vault blob at the given
// path.
func New(store remote.Store, blobPath string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}

	if len(blobPath) == 0 {
		blobPath = remote.DefaultVaultPath
	}

	return &Engine{store: store, path: blobPath, logger: logger}
}

// PushResult reports the outcome of a push.
type PushResult struct {
	Success           bool                `json:"success"`
	PasswordRequired  bool                `json:"passwordRequired,omitempty"`
	Error             string              `json:"error,omitempty"`
	RecordsPushed     int                 `json:"recordsPushed"`
	ConflictsResolved int                 `json:"conflictsResolved"`
	Timestamp         vaultdata.Timestamp `json:"timestamp"`

	// Version is the sync-version identifier appended to the merged
	// history, for the caller to record locally.
	Version string `json:"version,omitempty"`
}

// PullResult reports the outcome of a pull. Merged is the new local
// vault when VaultUpdated is set.
type PullResult struct {
	Success           bool                   `json:"success"`
	PasswordRequired  bool                   `json:"passwordRequired,omitempty"`
	Error             string                 `json:"error,omitempty"`
	VaultUpdated      bool                   `json:"vaultUpdated"`
	RecordsPulled     int                    `json:"recordsPulled"`
	ConflictsResolved int                    `json:"conflictsResolved"`
	KDFUpdated        bool                   `json:"kdfUpdated,omitempty"`
	RemoteKDF         *vaultcrypto.KDFConfig `json:"remoteKdfConfig,omitempty"`
	Timestamp         vaultdata.Timestamp    `json:"timestamp"`
	Merged            *vaultdata.Vault       `json:"-"`
}

// errInvalidMasterPassword is surfaced in sync results when a supplied
// password fails to open the peer's sentinel during KDF alignment.
const errInvalidMasterPassword = "Invalid master password"

// Push merges the local vault into the remote blob. Records flagged
// local_only never leave the machine. When the remote vault uses an
// incompatible KDF configuration, the caller's password is required and
// the local ciphertexts are re-encrypted so the merged blob keeps the
// remote KDF.
func (e *Engine) Push(ctx context.Context, local *vaultdata.Vault, crypter Crypter, password []byte) PushResult {
	now := vaultdata.Now()
	filtered := filterLocalOnly(local)

	remoteVault, err := e.fetch(ctx)
	if err != nil {
		return PushResult{Error: err.Error(), Timestamp: now}
	}

	if remoteVault == nil {
		version := uuid.NewString()
		filtered.History = append(filtered.History, version)

		if err := e.writeRemote(ctx, filtered); err != nil {
			return PushResult{Error: err.Error(), Timestamp: now}
		}

		return PushResult{
			Success:       true,
			RecordsPushed: len(filtered.Records),
			Timestamp:     now,
			Version:       version,
		}
	}

	if !vaultcrypto.Compatible(filtered.KDF, remoteVault.KDF) {
		if len(password) == 0 {
			return PushResult{PasswordRequired: true, Timestamp: now}
		}

		remoteKey, err := vaultcrypto.DeriveKey(password, remoteVault.KDF)
		if err != nil {
			return PushResult{Error: err.Error(), Timestamp: now}
		}

		if !sentinelOpens(remoteVault, remoteKey) {
			return PushResult{Error: errInvalidMasterPassword, Timestamp: now}
		}

		// adopt the remote KDF policy for this push: the merged blob
		// keeps a single consistent configuration.
		filtered, err = reencryptVault(filtered, decryptWith(crypter), encryptUnder(remoteKey))
		if err != nil {
			return PushResult{Error: err.Error(), Timestamp: now}
		}

		filtered.KDF = remoteVault.KDF
		filtered.Sentinel = remoteVault.Sentinel
	}

	stats := &mergeStats{}

	merged := vaultdata.New(remoteVault.KDF)
	merged.Records = mergeRecords(filtered.Records, remoteVault.Records, false, stats)
	merged.Labels = mergeEncryptedMap(filtered.Labels, remoteVault.Labels, false, stats)
	merged.Templates = mergeEncryptedMap(filtered.Templates, remoteVault.Templates, false, stats)
	merged.History = mergeHistory(remoteVault.History, filtered.History)

	merged.Sentinel = remoteVault.Sentinel
	if merged.Sentinel == nil {
		merged.Sentinel = filtered.Sentinel
	}

	version := uuid.NewString()
	merged.History = append(merged.History, version)

	if err := e.writeRemote(ctx, merged); err != nil {
		return PushResult{Error: err.Error(), Timestamp: now}
	}

	e.logger.Info("push complete", "records", len(merged.Records), "conflicts", stats.conflicts)

	return PushResult{
		Success:           true,
		RecordsPushed:     len(filtered.Records),
		ConflictsResolved: stats.conflicts,
		Timestamp:         now,
		Version:           version,
	}
}

// Pull merges the remote blob into the local vault. Local-only records
// are preserved untouched. When the remote KDF is incompatible, the
// password is required to derive the remote key; remote entities are
// re-encrypted under the local master key before merging, and any
// decrypt failure after alignment fails the whole pull.
func (e *Engine) Pull(ctx context.Context, local *vaultdata.Vault, crypter Crypter, password []byte) PullResult {
	now := vaultdata.Now()

	remoteVault, err := e.fetch(ctx)
	if err != nil {
		return PullResult{Error: err.Error(), Timestamp: now}
	}

	if remoteVault == nil {
		return PullResult{Success: true, Timestamp: now}
	}

	result := PullResult{Timestamp: now}

	effectiveRemote := remoteVault

	if !vaultcrypto.Compatible(remoteVault.KDF, local.KDF) {
		if len(password) == 0 {
			return PullResult{PasswordRequired: true, Timestamp: now}
		}

		remoteKey, err := vaultcrypto.DeriveKey(password, remoteVault.KDF)
		if err != nil {
			return PullResult{Error: err.Error(), Timestamp: now}
		}

		if !sentinelOpens(remoteVault, remoteKey) {
			return PullResult{Error: errInvalidMasterPassword, Timestamp: now}
		}

		effectiveRemote, err = reencryptVault(remoteVault, decryptUnder(remoteKey), encryptWith(crypter))
		if err != nil {
			return PullResult{Error: err.Error(), Timestamp: now}
		}

		remoteKDF := remoteVault.KDF
		result.KDFUpdated = true
		result.RemoteKDF = &remoteKDF
	}

	filtered := filterLocalOnly(local)

	stats := &mergeStats{}

	merged := vaultdata.New(local.KDF)
	merged.Records = mergeRecords(filtered.Records, effectiveRemote.Records, true, stats)
	merged.Labels = mergeEncryptedMap(filtered.Labels, effectiveRemote.Labels, true, stats)
	merged.Templates = mergeEncryptedMap(filtered.Templates, effectiveRemote.Templates, true, stats)
	merged.History = mergeHistory(local.History, effectiveRemote.History)
	merged.Sentinel = local.Sentinel

	// local-only records survive every pull untouched.
	for id, r := range local.Records {
		if r != nil && r.LocalOnly {
			merged.Records[id] = r.Clone()
		}
	}

	result.Success = true
	result.RecordsPulled = stats.recordsPulled
	result.ConflictsResolved = stats.conflicts
	result.VaultUpdated = stats.takenRemote > 0 || len(merged.History) != len(local.History)
	result.Merged = merged

	e.logger.Info("pull complete", "pulled", result.RecordsPulled, "conflicts", result.ConflictsResolved)

	return result
}

// fetch returns the decoded remote vault, or nil when no remote blob
// exists yet.
func (e *Engine) fetch(ctx context.Context) (*vaultdata.Vault, error) {
	ok, err := e.store.Exists(ctx, e.path)
	if err != nil {
		return nil, fmt.Errorf("sync fetch: %w", err)
	}

	if !ok {
		return nil, nil
	}

	raw, err := e.store.Get(ctx, e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("sync fetch: %w", err)
	}

	v := &vaultdata.Vault{}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("sync fetch: decode remote vault: %w", err)
	}

	v.Normalize()

	return v, nil
}

func (e *Engine) writeRemote(ctx context.Context, v *vaultdata.Vault) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sync write: encode: %w", err)
	}

	if dir := path.Dir(e.path); dir != "." && dir != "/" {
		if err := e.store.MkdirAll(ctx, dir); err != nil {
			return fmt.Errorf("sync write: %w", err)
		}
	}

	if err := e.store.Put(ctx, e.path, raw); err != nil {
		return fmt.Errorf("sync write: %w", err)
	}

	return nil
}

// filterLocalOnly returns a deep copy of the vault without local_only
// records.
func filterLocalOnly(v *vaultdata.Vault) *vaultdata.Vault {
	filtered := v.Clone()

	for id, r := range filtered.Records {
		if r != nil && r.LocalOnly {
			delete(filtered.Records, id)
		}
	}

	return filtered
}

func sentinelOpens(v *vaultdata.Vault, key []byte) bool {
	if v.Sentinel == nil {
		return false
	}

	plaintext, err := vaultcrypto.Decrypt(*v.Sentinel, key)
	if err != nil {
		return false
	}

	return string(plaintext) == vaultdata.SentinelValue
}

type (
	decryptFunc func(vaultcrypto.EncryptedData) ([]byte, error)
	encryptFunc func([]byte) (vaultcrypto.EncryptedData, error)
)

func decryptWith(c Crypter) decryptFunc { return c.Decrypt }
func encryptWith(c Crypter) encryptFunc { return c.Encrypt }

func decryptUnder(key []byte) decryptFunc {
	return func(ed vaultcrypto.EncryptedData) ([]byte, error) {
		return vaultcrypto.Decrypt(ed, key)
	}
}

func encryptUnder(key []byte) encryptFunc {
	return func(p []byte) (vaultcrypto.EncryptedData, error) {
		return vaultcrypto.Encrypt(p, key)
	}
}

// reencryptVault maps every ciphertext of the vault through
// decrypt-then-encrypt. The sentinel is not carried over; callers decide
// which side's sentinel the result keeps. Any decrypt failure aborts.
func reencryptVault(v *vaultdata.Vault, decrypt decryptFunc, encrypt encryptFunc) (*vaultdata.Vault, error) {
	out := v.Clone()

	reencrypt := func(ed vaultcrypto.EncryptedData) (vaultcrypto.EncryptedData, error) {
		plaintext, err := decrypt(ed)
		if err != nil {
			return vaultcrypto.EncryptedData{}, err
		}

		return encrypt(plaintext)
	}

	for id, r := range out.Records {
		if r == nil || r.Deleted {
			continue
		}

		if r.Title != nil {
			ed, err := reencrypt(*r.Title)
			if err != nil {
				return nil, fmt.Errorf("kdf alignment: record %s: title: %w", id, err)
			}

			r.Title = &ed
		}

		for fid, fed := range r.Fields {
			ed, err := reencrypt(fed)
			if err != nil {
				return nil, fmt.Errorf("kdf alignment: record %s: field %s: %w", id, fid, err)
			}

			r.Fields[fid] = ed
		}
	}

	for id, led := range out.Labels {
		ed, err := reencrypt(led)
		if err != nil {
			return nil, fmt.Errorf("kdf alignment: label %s: %w", id, err)
		}

		out.Labels[id] = ed
	}

	for id, ted := range out.Templates {
		ed, err := reencrypt(ted)
		if err != nil {
			return nil, fmt.Errorf("kdf alignment: template %s: %w", id, err)
		}

		out.Templates[id] = ed
	}

	out.Sentinel = nil

	return out, nil
}
