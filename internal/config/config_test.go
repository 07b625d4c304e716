package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := &Config{
		BaseURL:      "https://shop.example.com",
		OutputFormat: "json",
		PageSize:     50,
		MaxDepth:     4,
		RateLimit:    2.5,
	}
	require.NoError(t, want.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("base_url: [unterminated"), 0o600))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "parsing config")

	negative := filepath.Join(dir, "negative.yaml")
	require.NoError(t, os.WriteFile(negative, []byte("max_depth: -1\n"), 0o600))
	_, err = Load(negative)
	assert.ErrorContains(t, err, "max_depth")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Config{KeyringBackend: "File", PageSize: 10}).Validate())

	err := (&Config{KeyringBackend: "vault", PageSize: -1, RateLimit: -2}).Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "keyring_backend")
	assert.ErrorContains(t, err, "page_size")
	assert.ErrorContains(t, err, "rate_limit")

	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.ErrorContains(t, (&Config{MaxDepth: -1}).Save(path), "invalid config")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPath(t *testing.T) {
	got, err := Path("  /tmp/custom.yaml ")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", got)

	t.Setenv("HOME", t.TempDir())
	got, err = Path("")
	require.NoError(t, err)
	want, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join(".config", AppName, "config.yaml")), path)
}
