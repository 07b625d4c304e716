package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName names the keyring service and the config directory.
const AppName = "storefront"

// Config holds CLI configuration
type Config struct {
	BaseURL        string  `yaml:"base_url,omitempty"`
	Token          string  `yaml:"token,omitempty"`
	KeyringBackend string  `yaml:"keyring_backend,omitempty"` // auto, keychain, file
	OutputFormat   string  `yaml:"output_format,omitempty"`   // text, json, ndjson, yaml, table
	PageSize       int     `yaml:"page_size,omitempty"`
	MaxDepth       int     `yaml:"max_depth,omitempty"`
	RateLimit      float64 `yaml:"rate_limit,omitempty"` // requests per second, 0 = unlimited
}

var keyringBackends = map[string]bool{"": true, "auto": true, "keychain": true, "file": true}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if !keyringBackends[strings.ToLower(c.KeyringBackend)] {
		errs = append(errs, fmt.Errorf("keyring_backend %q must be auto, keychain or file", c.KeyringBackend))
	}
	if c.PageSize < 0 {
		errs = append(errs, errors.New("page_size must not be negative"))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, errors.New("max_depth must not be negative"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// ConfigDir returns ~/.config/storefront.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Path returns override when set, otherwise the default config path.
func Path(override string) (string, error) {
	if p := strings.TrimSpace(override); p != "" {
		return p, nil
	}
	return DefaultConfigPath()
}

// EnsureKeyringDir creates the encrypted-file keyring directory.
func EnsureKeyringDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return "", fmt.Errorf("creating keyring directory: %w", err)
	}
	return keyringDir, nil
}

// Load reads and validates the config at path. A missing file yields an
// empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save validates c and writes it to path with owner-only permissions.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
