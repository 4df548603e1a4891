package vault_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/storage"
	"github.com/passnote/passnote/vault"
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/charmbracelet/log"
	gocmp "github.com/google/go-cmp/cmp"
)

const testPassword = "Correct-Horse-Battery-Staple-42"

func fastKDFConfig(tb testing.TB) vaultcrypto.KDFConfig {
	tb.Helper()

	salt, err := vaultcrypto.NewSalt()
	if err != nil {
		tb.Fatalf("new salt: %v", err)
	}

	return vaultcrypto.KDFConfig{
		Algorithm: vaultcrypto.AlgorithmArgon2id,
		Params: vaultcrypto.KDFParams{
			Salt:      base64.StdEncoding.EncodeToString(salt),
			KeyLength: 32,
			Opslimit:  1,
			Memlimit:  8 * 1024 * 1024,
		},
	}
}

// newTestManager builds an unlocked manager over in-memory persistence
// using a cheap KDF configuration.
func newTestManager(tb testing.TB) (*vault.Manager, *storage.MemStore) {
	tb.Helper()

	ctx := context.Background()
	store := storage.NewMemStore()
	m := vault.NewManager(store, log.New(io.Discard))

	cfg := fastKDFConfig(tb)

	key, err := vaultcrypto.DeriveKey([]byte(testPassword), cfg)
	if err != nil {
		tb.Fatalf("derive key: %v", err)
	}

	v := vaultdata.New(cfg)

	sentinel, err := vaultcrypto.Encrypt([]byte(vaultdata.SentinelValue), key)
	if err != nil {
		tb.Fatalf("encrypt sentinel: %v", err)
	}

	v.Sentinel = &sentinel

	if err := m.AdoptVault(ctx, v, key); err != nil {
		tb.Fatalf("adopt vault: %v", err)
	}

	return m, store
}

func loginTemplate(tb testing.TB, m *vault.Manager) string {
	tb.Helper()

	id, err := m.CreateTemplate(context.Background(), "Login", []vaultdata.TemplateField{
		{ID: "f1", Name: "username", Type: vaultdata.FieldText},
		{ID: "f2", Name: "password", Type: vaultdata.FieldPassword},
	})
	if err != nil {
		tb.Fatalf("create template: %v", err)
	}

	return id
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	m, store := newTestManager(t)
	m.ClearMasterKey()

	fresh := vault.NewManager(store, log.New(io.Discard))

	if err := fresh.Authenticate(ctx, []byte("nope")); !errors.Is(err, vaulterrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	if fresh.IsUnlocked() {
		t.Error("manager unlocked after failed authentication")
	}

	if err := fresh.Authenticate(ctx, []byte(testPassword)); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if !fresh.IsUnlocked() {
		t.Error("manager locked after successful authentication")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tid := loginTemplate(t, m)

	rid, err := m.CreateRecord(ctx, tid, "Example", map[string]string{
		"username": "alice",
		"password": "pw",
		"unknown":  "dropped",
	}, nil)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	got, err := m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	if got == nil {
		t.Fatal("get record: got nil")
	}

	if got.Title != "Example" {
		t.Errorf("got title %q, want %q", got.Title, "Example")
	}

	want := []vaultdata.RecordField{
		{ID: "f1", Name: "username", Type: vaultdata.FieldText, Value: "alice"},
		{ID: "f2", Name: "password", Type: vaultdata.FieldPassword, Value: "pw"},
	}

	if diff := gocmp.Diff(want, got.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tid := loginTemplate(t, m)

	rid, err := m.CreateRecord(ctx, tid, "Example", map[string]string{"username": "alice"}, nil)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	before, err := m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	newTitle := "Renamed"

	err = m.UpdateRecord(ctx, rid, vault.UpdateRecordParams{
		Title:  &newTitle,
		Fields: map[string]string{"password": "s3cret"},
	})
	if err != nil {
		t.Fatalf("update record: %v", err)
	}

	got, err := m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	if got.Title != "Renamed" {
		t.Errorf("got title %q, want %q", got.Title, "Renamed")
	}

	if len(got.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(got.Fields))
	}

	// timestamps have millisecond resolution; equality is possible on
	// fast machines, strictly-earlier is not.
	if before.LastModified.After(got.LastModified) {
		t.Error("update moved last_modified backwards")
	}

	if err := m.UpdateRecord(ctx, "missing", vault.UpdateRecordParams{Title: &newTitle}); !errors.Is(err, vaulterrors.ErrRecordNotFound) {
		t.Errorf("update missing: got %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteRecordTombstones(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tid := loginTemplate(t, m)

	rid, err := m.CreateRecord(ctx, tid, "Example", map[string]string{"username": "alice"}, nil)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := m.DeleteRecord(ctx, rid); err != nil {
		t.Fatalf("delete record: %v", err)
	}

	got, err := m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get deleted record: %v", err)
	}

	if got != nil {
		t.Error("deleted record still readable")
	}

	list, err := m.RecordList(ctx)
	if err != nil {
		t.Fatalf("record list: %v", err)
	}

	if len(list) != 0 {
		t.Errorf("record list contains %d entries, want 0", len(list))
	}

	// the tombstone itself must survive for sync.
	if stored := m.Vault().Records[rid]; stored == nil || !stored.Deleted {
		t.Error("tombstone missing from vault")
	}

	if err := m.DeleteRecord(ctx, rid); !errors.Is(err, vaulterrors.ErrRecordNotFound) {
		t.Errorf("double delete: got %v, want ErrRecordNotFound", err)
	}
}

func TestLockedOperationsFail(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tid := loginTemplate(t, m)

	rid, err := m.CreateRecord(ctx, tid, "Example", map[string]string{"username": "alice"}, nil)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	m.ClearMasterKey()

	if _, err := m.GetRecord(ctx, rid); !errors.Is(err, vaulterrors.ErrLocked) {
		t.Errorf("get while locked: got %v, want ErrLocked", err)
	}

	if _, err := m.CreateRecord(ctx, tid, "x", nil, nil); !errors.Is(err, vaulterrors.ErrLocked) {
		t.Errorf("create while locked: got %v, want ErrLocked", err)
	}
}

func TestLabels(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	lid, err := m.CreateLabel(ctx, "work")
	if err != nil {
		t.Fatalf("create label: %v", err)
	}

	tid := loginTemplate(t, m)

	// unknown label ids are dropped on create.
	rid, err := m.CreateRecord(ctx, tid, "Example", nil, []string{lid, "unknown-label"})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	got, err := m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	if diff := gocmp.Diff([]string{lid}, got.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if err := m.UpdateLabel(ctx, lid, "personal"); err != nil {
		t.Fatalf("update label: %v", err)
	}

	info, err := m.GetLabel(ctx, lid)
	if err != nil {
		t.Fatalf("get label: %v", err)
	}

	if info.Name != "personal" {
		t.Errorf("got label name %q, want %q", info.Name, "personal")
	}

	// deletion scrubs the id from records.
	if err := m.DeleteLabel(ctx, lid); err != nil {
		t.Fatalf("delete label: %v", err)
	}

	got, err = m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	if len(got.Labels) != 0 {
		t.Errorf("deleted label still referenced: %v", got.Labels)
	}

	if _, err := m.GetLabel(ctx, lid); !errors.Is(err, vaulterrors.ErrLabelNotFound) {
		t.Errorf("get deleted label: got %v, want ErrLabelNotFound", err)
	}
}

func TestDeleteTemplateInUse(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tid := loginTemplate(t, m)

	rid, err := m.CreateRecord(ctx, tid, "Example", map[string]string{"username": "alice"}, nil)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := m.DeleteTemplate(ctx, tid); !errors.Is(err, vaulterrors.ErrTemplateInUse) {
		t.Errorf("delete referenced template: got %v, want ErrTemplateInUse", err)
	}

	if err := m.DeleteRecord(ctx, rid); err != nil {
		t.Fatalf("delete record: %v", err)
	}

	// only live records block template deletion.
	if err := m.DeleteTemplate(ctx, tid); err != nil {
		t.Fatalf("delete template: %v", err)
	}
}

func TestKDFRotation(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	tid := loginTemplate(t, m)

	rid, err := m.CreateRecord(ctx, tid, "Example", map[string]string{
		"username": "alice",
		"password": "pw",
	}, nil)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := m.SetWebDAVConfig(ctx, remote.Config{URL: "https://dav.example.com", Username: "u", Password: "p"}); err != nil {
		t.Fatalf("set webdav config: %v", err)
	}

	if err := m.UpdateKDFConfig(ctx, m.KDF(), []byte(testPassword)); !errors.Is(err, vaulterrors.ErrIdenticalKDFConfig) {
		t.Errorf("identical config: got %v, want ErrIdenticalKDFConfig", err)
	}

	newCfg := fastKDFConfig(t)

	if err := m.UpdateKDFConfig(ctx, newCfg, []byte("wrong-password")); !errors.Is(err, vaulterrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	if err := m.UpdateKDFConfig(ctx, newCfg, []byte(testPassword)); err != nil {
		t.Fatalf("kdf rotation: %v", err)
	}

	got, err := m.GetRecord(ctx, rid)
	if err != nil {
		t.Fatalf("get record after rotation: %v", err)
	}

	if got.Title != "Example" {
		t.Errorf("got title %q, want %q", got.Title, "Example")
	}

	values := map[string]string{}
	for _, f := range got.Fields {
		values[f.Name] = f.Value
	}

	if values["username"] != "alice" || values["password"] != "pw" {
		t.Errorf("field plaintexts changed across rotation: %v", values)
	}

	cfg, err := m.WebDAVConfig(ctx)
	if err != nil {
		t.Fatalf("webdav config after rotation: %v", err)
	}

	if cfg.URL != "https://dav.example.com" {
		t.Errorf("webdav config lost across rotation: %+v", cfg)
	}

	// the stored vault must authenticate with the new configuration.
	fresh := vault.NewManager(store, log.New(io.Discard))
	if err := fresh.Authenticate(ctx, []byte(testPassword)); err != nil {
		t.Fatalf("authenticate after rotation: %v", err)
	}

	if !vaultcrypto.Compatible(fresh.KDF(), newCfg) {
		t.Error("persisted vault kdf does not match the rotated config")
	}
}

func TestWebDAVConfigCustody(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	if _, err := m.WebDAVConfig(ctx); !errors.Is(err, vaulterrors.ErrWebDAVNotConfigured) {
		t.Errorf("unset config: got %v, want ErrWebDAVNotConfigured", err)
	}

	want := remote.Config{URL: "https://dav.example.com", Username: "u", Password: "p", VaultPath: "/x/vault.json"}

	if err := m.SetWebDAVConfig(ctx, want); err != nil {
		t.Fatalf("set webdav config: %v", err)
	}

	got, err := m.WebDAVConfig(ctx)
	if err != nil {
		t.Fatalf("get webdav config: %v", err)
	}

	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if err := m.ClearWebDAVConfig(ctx); err != nil {
		t.Fatalf("clear webdav config: %v", err)
	}

	if _, err := m.WebDAVConfig(ctx); !errors.Is(err, vaulterrors.ErrWebDAVNotConfigured) {
		t.Errorf("cleared config: got %v, want ErrWebDAVNotConfigured", err)
	}
}
