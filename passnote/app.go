// Package passnote exposes the public facade of the vault: lifecycle
// management, encrypted CRUD, WebDAV configuration and remote sync, with
// precondition enforcement on every operation.
package passnote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/storage"
	"github.com/passnote/passnote/vault"
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/charmbracelet/log"
)

// Config wires the facade to its environment.
type Config struct {
	// DBPath is the sqlite file backing local persistence.
	DBPath string

	// Namespace scopes the user-profile and vault-data blobs.
	Namespace string

	// WebDAV, when set, is stored (encrypted) at initialization time.
	WebDAV *remote.Config

	// PullRemoteVault makes Initialize adopt an existing remote vault
	// instead of creating a fresh local one.
	PullRemoteVault bool
}

// RemoteFactory builds a remote blob store from a WebDAV config. The
// default uses [remote.NewWebDAVStore]; tests inject fakes.
type RemoteFactory func(cfg remote.Config) remote.Store

// App is the single public surface of the vault. Its lifecycle moves
// from uninitialized through initialized-and-locked to unlocked.
//
// An App serializes its operations with an internal lock; callers still
// must not assume cross-call ordering beyond their own sequencing.
type App struct {
	mu sync.Mutex

	config        Config
	store         storage.BlobStore
	closeStore    func() error
	manager       *vault.Manager
	remoteFactory RemoteFactory
	logger        *log.Logger

	initialized bool
}

// Option configures an [App].
type Option func(*App)

// WithBlobStore overrides the sqlite-backed local persistence.
func WithBlobStore(store storage.BlobStore) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithRemoteFactory overrides how remote stores are constructed.
func WithRemoteFactory(f RemoteFactory) Option {
	return func(a *App) {
		a.remoteFactory = f
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New creates the facade. Persistence is opened eagerly; the vault
// itself is not loaded until Initialize or Authenticate.
func New(cfg Config, opts ...Option) (*App, error) {
	a := &App{
		config: cfg,
		logger: log.Default(),
		remoteFactory: func(c remote.Config) remote.Store {
			return remote.NewWebDAVStore(c)
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		if len(cfg.DBPath) == 0 {
			return nil, errors.New("passnote: missing database path")
		}

		namespace := cfg.Namespace
		if len(namespace) == 0 {
			namespace = "default"
		}

		s, err := storage.OpenSQLite(cfg.DBPath, namespace)
		if err != nil {
			return nil, fmt.Errorf("passnote: %w", err)
		}

		a.store, a.closeStore = s, s.Close
	}

	a.manager = vault.NewManager(a.store, a.logger)

	return a, nil
}

// Close releases the underlying persistence handle and clears the master
// key.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.manager.ClearMasterKey()

	if a.closeStore != nil {
		return a.closeStore()
	}

	return nil
}

// IsInitialized reports whether persistence already contains a vault.
func (a *App) IsInitialized(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.manager.IsInitialized(ctx)
}

// Initialize prepares the vault for use.
//
// With existing persistence it loads the stored vault and marks the app initialized;
// authentication happens via [App.Authenticate]. Otherwise the master
// password is strength-checked and a vault is created: adopted from the
// remote when the config asks for it and a remote vault exists, freshly
// local otherwise.
func (a *App) Initialize(ctx context.Context, masterPassword string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok, err := a.manager.IsInitialized(ctx)
	if err != nil {
		return err
	}

	if ok {
		if err := a.manager.Load(ctx); err != nil {
			return err
		}

		a.initialized = true

		return nil
	}

	if !vaultcrypto.CheckPasswordStrength(masterPassword).Acceptable {
		return vaulterrors.ErrWeakPassword
	}

	if a.config.WebDAV != nil && a.config.PullRemoteVault {
		adopted, err := a.adoptRemoteVault(ctx, *a.config.WebDAV, masterPassword)
		if err != nil {
			return err
		}

		if adopted {
			a.initialized = true
			return a.manager.SetWebDAVConfig(ctx, *a.config.WebDAV)
		}

		a.logger.Info("no remote vault found, creating a fresh local vault")
	}

	if err := a.manager.InitializeVault(ctx, []byte(masterPassword)); err != nil {
		return err
	}

	if a.config.WebDAV != nil {
		if err := a.manager.SetWebDAVConfig(ctx, *a.config.WebDAV); err != nil {
			return err
		}
	}

	a.initialized = true

	return nil
}

// adoptRemoteVault loads the remote vault blob and installs it locally,
// deriving the master key from the remote KDF configuration. It reports
// false when the remote is absent or unreachable so initialization can
// fall through to a local vault.
func (a *App) adoptRemoteVault(ctx context.Context, cfg remote.Config, masterPassword string) (bool, error) {
	store := a.remoteFactory(cfg)

	ok, err := store.Exists(ctx, cfg.Path())
	if err != nil {
		a.logger.Warn("remote vault unreachable, falling back to local initialization")
		return false, nil
	}

	if !ok {
		return false, nil
	}

	raw, err := store.Get(ctx, cfg.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		a.logger.Warn("remote vault unreachable, falling back to local initialization")

		return false, nil
	}

	v := &vaultdata.Vault{}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("initialize: decode remote vault: %w", err)
	}

	key, err := vaultcrypto.DeriveKey([]byte(masterPassword), v.KDF)
	if err != nil {
		return false, fmt.Errorf("initialize: %w", err)
	}

	if err := a.manager.AdoptVault(ctx, v, key); err != nil {
		return false, err
	}

	return true, nil
}

// AuthResult is the structured outcome of an authentication attempt.
type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Authenticate derives a key from the stored vault's KDF configuration
// and validates it against the sentinel.
func (a *App) Authenticate(ctx context.Context, password string) AuthResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok, err := a.manager.IsInitialized(ctx)
	if err != nil {
		return AuthResult{Error: err.Error()}
	}

	if !ok {
		return AuthResult{Error: vaulterrors.ErrNotInitialized.Error()}
	}

	if err := a.manager.Authenticate(ctx, []byte(password)); err != nil {
		if errors.Is(err, vaulterrors.ErrInvalidCredentials) {
			return AuthResult{Error: vaulterrors.ErrInvalidCredentials.Error()}
		}

		return AuthResult{Error: err.Error()}
	}

	a.initialized = true

	return AuthResult{Success: true}
}

// Lock clears the in-memory master key. The vault stays initialized.
func (a *App) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.manager.ClearMasterKey()
}

// IsUnlocked reports whether a master key is held in memory.
func (a *App) IsUnlocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.manager.IsUnlocked()
}

// Reset wipes persistence and drops all in-memory state.
func (a *App) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.initialized = false

	return a.manager.Reset(ctx)
}

// CheckPasswordComplexity scores a candidate master password.
func (*App) CheckPasswordComplexity(password string) vaultcrypto.PasswordStrength {
	return vaultcrypto.CheckPasswordStrength(password)
}

// requireInitialized guards data operations at the facade.
func (a *App) requireInitialized() error {
	if !a.initialized {
		return vaulterrors.ErrNotInitialized
	}

	return nil
}
