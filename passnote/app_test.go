package passnote_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/passnote/passnote/passnote"
	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/storage"
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/charmbracelet/log"
)

const masterPassword = "Correct-Horse-Battery-Staple-42"

// newTestApp builds a facade over in-memory persistence, wired to the
// shared in-memory remote.
func newTestApp(tb testing.TB, shared *remote.MemStore, cfg passnote.Config) *passnote.App {
	tb.Helper()

	app, err := passnote.New(cfg,
		passnote.WithBlobStore(storage.NewMemStore()),
		passnote.WithLogger(log.New(io.Discard)),
		passnote.WithRemoteFactory(func(remote.Config) remote.Store { return shared }),
	)
	if err != nil {
		tb.Fatalf("new app: %v", err)
	}

	tb.Cleanup(func() { _ = app.Close() })

	return app
}

func initializedApp(tb testing.TB, shared *remote.MemStore) *passnote.App {
	tb.Helper()

	app := newTestApp(tb, shared, passnote.Config{})

	if err := app.Initialize(context.Background(), masterPassword); err != nil {
		tb.Fatalf("initialize: %v", err)
	}

	return app
}

func createLoginRecord(tb testing.TB, app *passnote.App) (templateID, recordID string) {
	tb.Helper()

	ctx := context.Background()

	tid, err := app.CreateTemplate(ctx, "Login", []vaultdata.TemplateField{
		{ID: "f1", Name: "username", Type: vaultdata.FieldText},
		{ID: "f2", Name: "password", Type: vaultdata.FieldPassword},
	})
	if err != nil {
		tb.Fatalf("create template: %v", err)
	}

	rid, err := app.CreateRecord(ctx, tid, "Example", map[string]string{
		"username": "alice",
		"password": "pw",
	}, nil)
	if err != nil {
		tb.Fatalf("create record: %v", err)
	}

	return tid, rid
}

func TestCreateAndRead(t *testing.T) {
	ctx := context.Background()
	app := initializedApp(t, remote.NewMemStore())

	_, rid := createLoginRecord(t, app)

	got, err := app.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	values := map[string]string{}
	for _, f := range got.Fields {
		values[f.Name] = f.Value
	}

	if values["username"] != "alice" || values["password"] != "pw" {
		t.Errorf("got fields %v, want username=alice password=pw", values)
	}
}

func TestLockUnlock(t *testing.T) {
	ctx := context.Background()
	app := initializedApp(t, remote.NewMemStore())

	_, rid := createLoginRecord(t, app)

	app.Lock()

	if app.IsUnlocked() {
		t.Error("app still unlocked after Lock")
	}

	if _, err := app.GetRecord(ctx, rid); !errors.Is(err, vaulterrors.ErrLocked) {
		t.Errorf("get while locked: got %v, want ErrLocked", err)
	}

	if result := app.Authenticate(ctx, masterPassword); !result.Success {
		t.Fatalf("authenticate: %+v", result)
	}

	got, err := app.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get after unlock: %v", err)
	}

	if got.Title != "Example" {
		t.Errorf("got title %q, want %q", got.Title, "Example")
	}
}

func TestWrongPassword(t *testing.T) {
	ctx := context.Background()
	app := initializedApp(t, remote.NewMemStore())

	app.Lock()

	result := app.Authenticate(ctx, "nope")
	if result.Success {
		t.Fatal("authentication succeeded with the wrong password")
	}

	if result.Error != vaulterrors.ErrInvalidCredentials.Error() {
		t.Errorf("got error %q, want %q", result.Error, vaulterrors.ErrInvalidCredentials.Error())
	}
}

func TestWeakPasswordRejectedAtInitialize(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, remote.NewMemStore(), passnote.Config{})

	if err := app.Initialize(ctx, "password"); !errors.Is(err, vaulterrors.ErrWeakPassword) {
		t.Errorf("got %v, want ErrWeakPassword", err)
	}
}

func TestNotInitialized(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, remote.NewMemStore(), passnote.Config{})

	if _, err := app.GetRecordList(ctx); !errors.Is(err, vaulterrors.ErrNotInitialized) {
		t.Errorf("got %v, want ErrNotInitialized", err)
	}
}

func TestKDFRotationKeepsPlaintexts(t *testing.T) {
	ctx := context.Background()
	app := initializedApp(t, remote.NewMemStore())

	_, rid := createLoginRecord(t, app)

	salt, err := vaultcrypto.NewSalt()
	if err != nil {
		t.Fatalf("new salt: %v", err)
	}

	newCfg := vaultcrypto.KDFConfig{
		Algorithm: vaultcrypto.AlgorithmArgon2id,
		Params: vaultcrypto.KDFParams{
			Salt:      base64.StdEncoding.EncodeToString(salt),
			KeyLength: 32,
			Opslimit:  1,
			Memlimit:  8 * 1024 * 1024,
		},
	}

	if err := app.UpdateKDFConfig(ctx, newCfg, masterPassword); err != nil {
		t.Fatalf("update kdf config: %v", err)
	}

	got, err := app.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record after rotation: %v", err)
	}

	values := map[string]string{}
	for _, f := range got.Fields {
		values[f.Name] = f.Value
	}

	if values["username"] != "alice" || values["password"] != "pw" {
		t.Errorf("plaintexts changed across rotation: %v", values)
	}
}

func TestTombstonePropagationAcrossClients(t *testing.T) {
	ctx := context.Background()
	shared := remote.NewMemStore()

	a := initializedApp(t, shared)
	b := initializedApp(t, shared)

	for _, app := range []*passnote.App{a, b} {
		if err := app.ConfigureWebDAV(ctx, remote.Config{URL: "https://dav.example.com", Username: "u", Password: "p"}); err != nil {
			t.Fatalf("configure webdav: %v", err)
		}
	}

	_, rid := createLoginRecord(t, a)

	if result := a.Push(ctx, ""); !result.Success {
		t.Fatalf("A push failed: %+v", result)
	}

	// the two apps initialized with different salts, so B needs the
	// password to align KDFs on pull.
	result := b.Pull(ctx, "")
	if result.Success || !result.PasswordRequired {
		t.Fatalf("B pull without password: got %+v, want passwordRequired", result)
	}

	pull := b.Pull(ctx, masterPassword)
	if !pull.Success {
		t.Fatalf("B pull failed: %+v", pull)
	}

	if !pull.KDFUpdated || pull.RemoteKDF == nil {
		t.Error("B pull did not surface the remote KDF config")
	}

	got, err := b.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("B get record: %v", err)
	}

	if got == nil {
		t.Fatal("B did not receive the pushed record")
	}

	// A deletes and pushes; B pulls and the record disappears.
	time.Sleep(2 * time.Millisecond)

	if err := a.DeleteRecord(ctx, rid); err != nil {
		t.Fatalf("A delete: %v", err)
	}

	if result := a.Push(ctx, ""); !result.Success {
		t.Fatalf("A push after delete failed: %+v", result)
	}

	pull = b.Pull(ctx, masterPassword)
	if !pull.Success {
		t.Fatalf("B second pull failed: %+v", pull)
	}

	if pull.ConflictsResolved == 0 {
		t.Error("tombstone propagation not counted as a resolved conflict")
	}

	got, err = b.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("B get after tombstone pull: %v", err)
	}

	if got != nil {
		t.Error("deleted record still visible on B after pull")
	}
}

func TestInitializeAdoptsRemoteVault(t *testing.T) {
	ctx := context.Background()
	shared := remote.NewMemStore()

	seed := initializedApp(t, shared)
	if err := seed.ConfigureWebDAV(ctx, remote.Config{URL: "https://dav.example.com", Username: "u", Password: "p"}); err != nil {
		t.Fatalf("configure webdav: %v", err)
	}

	_, rid := createLoginRecord(t, seed)

	if result := seed.Push(ctx, ""); !result.Success {
		t.Fatalf("seed push failed: %+v", result)
	}

	webdav := remote.Config{URL: "https://dav.example.com", Username: "u", Password: "p"}

	adopter := newTestApp(t, shared, passnote.Config{WebDAV: &webdav, PullRemoteVault: true})

	if err := adopter.Initialize(ctx, masterPassword); err != nil {
		t.Fatalf("initialize with remote adoption: %v", err)
	}

	got, err := adopter.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get adopted record: %v", err)
	}

	if got == nil || got.Title != "Example" {
		t.Errorf("adopted vault missing the remote record: %+v", got)
	}
}

func TestSyncStatus(t *testing.T) {
	ctx := context.Background()
	shared := remote.NewMemStore()
	app := initializedApp(t, shared)

	status, err := app.GetSyncStatus(ctx)
	if err != nil {
		t.Fatalf("sync status: %v", err)
	}

	if status.Configured || status.SyncCount != 0 {
		t.Errorf("fresh vault status: %+v", status)
	}

	if err := app.ConfigureWebDAV(ctx, remote.Config{URL: "https://dav.example.com", Username: "u", Password: "p"}); err != nil {
		t.Fatalf("configure webdav: %v", err)
	}

	if result := app.Push(ctx, ""); !result.Success {
		t.Fatalf("push failed: %+v", result)
	}

	status, err = app.GetSyncStatus(ctx)
	if err != nil {
		t.Fatalf("sync status: %v", err)
	}

	if !status.Configured || status.SyncCount != 1 || len(status.LastVersion) == 0 {
		t.Errorf("post-push status: %+v", status)
	}
}

func TestResetWipesState(t *testing.T) {
	ctx := context.Background()
	app := initializedApp(t, remote.NewMemStore())

	createLoginRecord(t, app)

	if err := app.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	ok, err := app.IsInitialized(ctx)
	if err != nil {
		t.Fatalf("is initialized: %v", err)
	}

	if ok {
		t.Error("persistence survived reset")
	}

	if _, err := app.GetRecordList(ctx); !errors.Is(err, vaulterrors.ErrNotInitialized) {
		t.Errorf("got %v, want ErrNotInitialized", err)
	}
}
