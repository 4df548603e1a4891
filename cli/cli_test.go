package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/passnote/passnote/vaultdata"

	gocmp "github.com/google/go-cmp/cmp"
)

func TestParseFieldArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "valid",
			args: []string{"username=alice", "password=p=w"},
			want: map[string]string{"username": "alice", "password": "p=w"},
		},
		{
			name: "empty value",
			args: []string{"username="},
			want: map[string]string{"username": ""},
		},
		{
			name:    "missing separator",
			args:    []string{"username"},
			wantErr: true,
		},
		{
			name:    "empty name",
			args:    []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFieldArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := gocmp.Diff(tt.want, got); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTemplateFieldArgs(t *testing.T) {
	got, err := parseTemplateFieldArgs([]string{"username:text", "notes:textarea:optional"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []vaultdata.TemplateField{
		{Name: "username", Type: vaultdata.FieldText},
		{Name: "notes", Type: vaultdata.FieldTextarea, Optional: true},
	}

	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	for _, invalid := range []string{"username", "username:badtype", "a:text:bad", "a:text:optional:extra"} {
		if _, err := parseTemplateFieldArgs([]string{invalid}); err == nil {
			t.Errorf("spec %q: expected error, got nil", invalid)
		}
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passnote.toml")

	raw := `
[vault]
path = "/tmp/vault.db"
namespace = "work"

[webdav]
url = "https://dav.example.com"
username = "alice"
`

	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if c.Vault.Path != "/tmp/vault.db" || c.Vault.Namespace != "work" {
		t.Errorf("vault config mismatch: %+v", c.Vault)
	}

	if c.WebDAV.URL != "https://dav.example.com" {
		t.Errorf("webdav config mismatch: %+v", c.WebDAV)
	}

	// username without a url is rejected.
	invalid := `
[webdav]
username = "alice"
`

	if err := os.WriteFile(path, []byte(invalid), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFileConfig(path); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestGenerateTemplate(t *testing.T) {
	tpl, err := generateTemplate()
	if err != nil {
		t.Fatalf("generate template: %v", err)
	}

	if len(tpl) == 0 {
		t.Error("got empty config template")
	}
}
