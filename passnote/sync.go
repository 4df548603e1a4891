package passnote

import (
	"context"
	"errors"
	"path"

	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"
	"github.com/passnote/passnote/vaultsync"
)

// Push merges the local vault into the remote blob. The password is only
// needed when the remote vault uses an incompatible KDF configuration;
// pass the empty string otherwise.
func (a *App) Push(ctx context.Context, password string) vaultsync.PushResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	engine, err := a.engine(ctx)
	if err != nil {
		return vaultsync.PushResult{Error: err.Error(), Timestamp: vaultdata.Now()}
	}

	result := engine.Push(ctx, a.manager.Vault(), a.manager, []byte(password))

	if result.Success && len(result.Version) > 0 {
		if err := a.manager.AppendHistory(ctx, result.Version); err != nil {
			a.logger.Warn("push: failed to record sync version locally", "err", err)
		}
	}

	return result
}

// Pull merges the remote blob into the local vault and persists the
// merged result. Local-only records survive untouched.
func (a *App) Pull(ctx context.Context, password string) vaultsync.PullResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	engine, err := a.engine(ctx)
	if err != nil {
		return vaultsync.PullResult{Error: err.Error(), Timestamp: vaultdata.Now()}
	}

	result := engine.Pull(ctx, a.manager.Vault(), a.manager, []byte(password))

	if result.Success && result.VaultUpdated && result.Merged != nil {
		if err := a.manager.ReplaceVault(ctx, result.Merged); err != nil {
			return vaultsync.PullResult{Error: err.Error(), Timestamp: result.Timestamp}
		}
	}

	return result
}

// TestWebDAVConnection probes the configured remote: connectivity and
// the vault directory.
func (a *App) TestWebDAVConnection(ctx context.Context, cfg remote.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	store := a.remoteFactory(cfg)

	if err := store.MkdirAll(ctx, path.Dir(cfg.Path())); err != nil {
		return err
	}

	if _, err := store.Exists(ctx, cfg.Path()); err != nil {
		return err
	}

	return nil
}

// SyncStatus summarizes the sync state of the vault.
type SyncStatus struct {
	Configured  bool                   `json:"configured"`
	RemotePath  string                 `json:"remotePath,omitempty"`
	SyncCount   int                    `json:"syncCount"`
	LastVersion string                 `json:"lastVersion,omitempty"`
	KDF         *vaultcrypto.KDFConfig `json:"kdf,omitempty"`
}

// GetSyncStatus reports whether sync is configured and how many sync
// versions the vault has seen.
func (a *App) GetSyncStatus(ctx context.Context) (SyncStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return SyncStatus{}, err
	}

	status := SyncStatus{}

	history := a.manager.History()
	status.SyncCount = len(history)

	if len(history) > 0 {
		status.LastVersion = history[len(history)-1]
	}

	kdf := a.manager.KDF()
	status.KDF = &kdf

	cfg, err := a.manager.WebDAVConfig(ctx)
	if err != nil {
		if errors.Is(err, vaulterrors.ErrWebDAVNotConfigured) {
			return status, nil
		}

		return SyncStatus{}, err
	}

	status.Configured = true
	status.RemotePath = cfg.Path()

	return status, nil
}

// UpdateKDFConfig rotates the vault's KDF configuration, re-encrypting
// every ciphertext under the newly derived key.
func (a *App) UpdateKDFConfig(ctx context.Context, newCfg vaultcrypto.KDFConfig, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.UpdateKDFConfig(ctx, newCfg, []byte(password))
}

// engine builds a sync engine from the stored WebDAV configuration.
func (a *App) engine(ctx context.Context) (*vaultsync.Engine, error) {
	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	cfg, err := a.manager.WebDAVConfig(ctx)
	if err != nil {
		return nil, err
	}

	return vaultsync.New(a.remoteFactory(cfg), cfg.Path(), a.logger), nil
}
