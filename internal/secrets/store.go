package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/storefront-cli/internal/config"
)

const (
	// EnvKeyringBackend selects the keyring backend (auto, keychain, file).
	EnvKeyringBackend = "STOREFRONT_KEYRING_BACKEND"
	// EnvKeyringPassword is the password for the encrypted file backend.
	EnvKeyringPassword = "STOREFRONT_KEYRING_PASSWORD"

	keyringOpenTimeout = 5 * time.Second
)

// ErrNotFound is returned when no credential is stored for a profile.
var ErrNotFound = errors.New("credential not found")

var errKeyringTimeout = errors.New("timed out opening keyring")

// keyringOpenFunc is swapped in tests.
var keyringOpenFunc = keyring.Open

// Token is a stored API credential.
type Token struct {
	APIToken  string    `json:"api_token"`
	BaseURL   string    `json:"base_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps credentials in the system keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an open keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// KeyringBackendInfo records the requested backend and where it came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// ResolveKeyringBackend reads the backend from the environment, then config.
func ResolveKeyringBackend(cfg *config.Config) KeyringBackendInfo {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvKeyringBackend))); v != "" {
		return KeyringBackendInfo{Value: v, Source: "env"}
	}
	if cfg != nil && strings.TrimSpace(cfg.KeyringBackend) != "" {
		return KeyringBackendInfo{Value: strings.ToLower(strings.TrimSpace(cfg.KeyringBackend)), Source: "config"}
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}
}

// shouldForceFileBackend reports whether a headless Linux session without a
// D-Bus secret service should fall back to the encrypted file backend.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening the keyring may block on
// a D-Bus prompt and needs a timeout.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

// Open opens the keyring honouring the configured backend. cfg may be nil.
func Open(cfg *config.Config) (*Store, error) {
	info := ResolveKeyringBackend(cfg)
	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")

	ringCfg := keyring.Config{
		ServiceName:              config.AppName,
		KeychainTrustApplication: true,
	}

	switch {
	case info.Value == "file" || shouldForceFileBackend(runtime.GOOS, info, dbusAddr):
		dir, err := config.EnsureKeyringDir()
		if err != nil {
			return nil, err
		}
		ringCfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ringCfg.FileDir = dir
		ringCfg.FilePasswordFunc = filePassword
	case info.Value == "keychain":
		ringCfg.AllowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
		}
	case info.Value != "auto":
		return nil, fmt.Errorf("invalid keyring backend %q (expected auto|keychain|file)", info.Value)
	}

	var (
		ring keyring.Keyring
		err  error
	)
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(ringCfg, keyringOpenTimeout)
	} else {
		ring, err = keyringOpenFunc(ringCfg)
	}
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return NewStore(ring), nil
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(EnvKeyringPassword); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// openKeyringWithTimeout gives up on keyring.Open after timeout. The open
// call keeps running in the background if it never returns.
func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring: ring, err: err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s; the secret service may be waiting for an unlock prompt.\n"+
			"Set %s=file to use the encrypted file backend instead", errKeyringTimeout, timeout, EnvKeyringBackend)
	}
}

// wrapKeychainError adds recovery steps to macOS "keychain locked" errors.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "errSecInteractionNotAllowed") || strings.Contains(msg, "-25308") {
		return fmt.Errorf("%w\nThe login keychain is locked. Unlock it with:\n  security unlock-keychain ~/Library/Keychains/login.keychain-db\n"+
			"or set %s=file", err, EnvKeyringBackend)
	}
	return err
}

// GetToken returns the token stored for profile.
func (s *Store) GetToken(profile string) (Token, error) {
	item, err := s.ring.Get(profile)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Token{}, ErrNotFound
		}
		return Token{}, wrapKeychainError(err)
	}

	var tok Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		return Token{}, fmt.Errorf("decoding stored credential: %w", err)
	}
	return tok, nil
}

// SetToken stores tok for profile.
func (s *Store) SetToken(profile string, tok Token) error {
	if strings.TrimSpace(tok.APIToken) == "" {
		return errors.New("refusing to store empty API token")
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:   profile,
		Data:  data,
		Label: config.AppName + " API token (" + profile + ")",
	})
	return wrapKeychainError(err)
}

// DeleteToken removes the token for profile. Missing entries are not an error.
func (s *Store) DeleteToken(profile string) error {
	if err := s.ring.Remove(profile); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return wrapKeychainError(err)
	}
	return nil
}

// Keys lists stored profiles.
func (s *Store) Keys() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return keys, nil
}
