package secrets

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
)

// stubOpen replaces keyringOpenFunc for one test. The returned wait blocks
// until the stub has returned so the original can be restored safely.
func stubOpen(t *testing.T, open func() (keyring.Keyring, error)) (wait func()) {
	t.Helper()
	original := keyringOpenFunc
	done := make(chan struct{})
	keyringOpenFunc = func(keyring.Config) (keyring.Keyring, error) {
		defer close(done)
		return open()
	}
	t.Cleanup(func() {
		<-done
		keyringOpenFunc = original
	})
	return func() { <-done }
}

func TestOpenKeyringWithTimeout(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)

	t.Run("returns ring", func(t *testing.T) {
		stubOpen(t, func() (keyring.Keyring, error) { return ring, nil })
		got, err := openKeyringWithTimeout(keyring.Config{}, time.Second)
		if err != nil {
			t.Fatalf("openKeyringWithTimeout() error = %v", err)
		}
		if got != ring {
			t.Errorf("openKeyringWithTimeout() = %v, want stub ring", got)
		}
	})

	t.Run("passes open error through", func(t *testing.T) {
		boom := errors.New("no secret service")
		stubOpen(t, func() (keyring.Keyring, error) { return nil, boom })
		if _, err := openKeyringWithTimeout(keyring.Config{}, time.Second); !errors.Is(err, boom) {
			t.Fatalf("openKeyringWithTimeout() error = %v, want %v", err, boom)
		}
	})

	t.Run("gives up on a blocked open", func(t *testing.T) {
		release := make(chan struct{})
		wait := stubOpen(t, func() (keyring.Keyring, error) {
			<-release
			return ring, nil
		})

		_, err := openKeyringWithTimeout(keyring.Config{}, 20*time.Millisecond)
		close(release)
		wait()

		if !errors.Is(err, errKeyringTimeout) {
			t.Fatalf("openKeyringWithTimeout() error = %v, want errKeyringTimeout", err)
		}
		if !strings.Contains(err.Error(), EnvKeyringBackend+"=file") {
			t.Errorf("timeout error should point at the file backend, got: %s", err)
		}
	})
}

func TestBackendSelection(t *testing.T) {
	const bus = "unix:path=/run/user/1000/bus"
	tests := []struct {
		goos, backend, dbus string
		forceFile, timeout  bool
	}{
		{"linux", "auto", "", true, false},
		{"linux", "auto", bus, false, true},
		{"linux", "file", bus, false, false},
		{"linux", "keychain", "", false, false},
		{"darwin", "auto", "", false, false},
		{"darwin", "auto", bus, false, false},
		{"windows", "auto", "", false, false},
	}
	for _, tt := range tests {
		info := KeyringBackendInfo{Value: tt.backend}
		if got := shouldForceFileBackend(tt.goos, info, tt.dbus); got != tt.forceFile {
			t.Errorf("shouldForceFileBackend(%s, %s, %q) = %v, want %v", tt.goos, tt.backend, tt.dbus, got, tt.forceFile)
		}
		if got := shouldUseKeyringTimeout(tt.goos, info, tt.dbus); got != tt.timeout {
			t.Errorf("shouldUseKeyringTimeout(%s, %s, %q) = %v, want %v", tt.goos, tt.backend, tt.dbus, got, tt.timeout)
		}
	}
}
