package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// defaultConfigName is the config file created under the user's home
	// directory.
	defaultConfigName = ".passnote.toml"

	// envConfigPathKey is the environment variable key for overriding
	// the config file path.
	envConfigPathKey = "PASSNOTE_CONFIG_PATH"
)

type ConfigError struct {
	Opt string
	Err error
}

func (e *ConfigError) Error() string {
	return "config: " + strings.Join([]string{e.Opt, e.Err.Error()}, ":")
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FileConfig represents the full structure of the configuration file.
//
//nolint:tagalign
type FileConfig struct {
	Vault  VaultConfig   `toml:"vault" json:"vault"`
	WebDAV *WebDAVConfig `toml:"webdav" comment:"Default WebDAV connection settings. They are validated and shown by 'config'; 'init' reads its WebDAV settings from its own flags only. Credentials are never stored here; the password is prompted." json:"webdav"`

	path string // path to the loaded config file. Empty if no config file was used.
}

func newFileConfig() *FileConfig {
	return &FileConfig{
		WebDAV: &WebDAVConfig{},
	}
}

// VaultConfig holds vault-related configuration.
//
//nolint:tagalign,tagliatelle
type VaultConfig struct {
	Path      string `toml:"path,commented" comment:"Vault database path (default: '~/.passnote.db' if not set)" json:"path,omitempty"`
	Namespace string `toml:"namespace,commented" comment:"Namespace within the vault database (default: 'default')" json:"namespace,omitempty"`
}

// WebDAVConfig holds the non-secret WebDAV defaults.
//
//nolint:tagalign,tagliatelle
type WebDAVConfig struct {
	URL       string `toml:"url,commented" comment:"WebDAV server URL" json:"url,omitempty"`
	Username  string `toml:"username,commented" comment:"WebDAV username" json:"username,omitempty"`
	VaultPath string `toml:"vault_path,commented" comment:"Remote vault blob path (default: '/password-note/vault.json')" json:"vault_path,omitempty"`
}

// LoadFileConfig loads the config from the given or default path.
func LoadFileConfig(path string) (*FileConfig, error) {
	defaultPath, err := defaultConfigPath()
	if err != nil {
		return nil, err
	}

	configPath := cmp.Or(path, defaultPath)

	c, err := parseFileConfig(configPath)
	if err != nil {
		// config file not found at default location; fallback to empty config
		if len(path) == 0 && errors.Is(err, fs.ErrNotExist) { //nolint:revive // clearer with explicit fallback logic
			c = newFileConfig()
		} else {
			return nil, err
		}
	} else {
		c.path = configPath
	}

	return c, c.validate()
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: user home dir: %w", err)
	}

	path := filepath.Join(home, defaultConfigName)
	if p, ok := os.LookupEnv(envConfigPathKey); ok {
		path = p
	}

	return path, nil
}

func parseFileConfig(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: stat file: %w", err)
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	config := newFileConfig()
	if err := toml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("config: parse file: %w", err)
	}

	return config, nil
}

func (c *FileConfig) validate() error {
	if c == nil {
		return &ConfigError{Err: errors.New("cannot validate a nil config")}
	}

	if c.WebDAV != nil && len(c.WebDAV.URL) == 0 && len(c.WebDAV.Username) > 0 {
		return &ConfigError{Opt: "webdav", Err: errors.New("'username' requires 'url' to be set")}
	}

	return nil
}

// ResolvedConfig is the effective configuration after defaults.
type ResolvedConfig struct {
	DBPath    string `json:"db_path"`
	Namespace string `json:"namespace"`
}

// ConfigOptions loads and resolves the file config for the command tree.
type ConfigOptions struct {
	// File overrides the config file location.
	File string

	parsed   *FileConfig
	resolved ResolvedConfig
}

// Load parses and resolves the configuration file.
func (o *ConfigOptions) Load() error {
	c, err := LoadFileConfig(o.File)
	if err != nil {
		return err
	}

	o.parsed = c
	o.resolved = ResolvedConfig{
		DBPath:    c.Vault.Path,
		Namespace: c.Vault.Namespace,
	}

	return nil
}

// generateTemplate renders the commented config file template.
func generateTemplate() (string, error) {
	raw, err := toml.Marshal(newFileConfig())
	if err != nil {
		return "", fmt.Errorf("config: marshal template: %w", err)
	}

	return string(raw), nil
}
