// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides thread-safe access to the OS keychain/credential
// store. It is the durable location of the Jifa token.
//
// On macOS the native `security` command is preferred, falling back to the
// keyring library (Keychain, then pass). Windows uses the Credential Manager.
// Other systems try the Secret Service, KWallet and pass before an encrypted
// file keyring unlocked with a password from the environment.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	"github.com/pterm/pterm"
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "jifa"

// KeyToken is the keychain key holding the bearer token. It matches the
// cookie name the server uses for the same credential.
const KeyToken = "jifa-token"

// ErrUnavailable is returned when no credential store can be opened.
var ErrUnavailable = errors.New("secure storage unavailable")

// Options tune how the keyring is opened.
type Options struct {
	// FileDir holds the encrypted file keyring when no native store exists.
	FileDir string
	// FilePassword unlocks the file keyring. Empty disables the file backend.
	FilePassword string
	Logger       *pterm.Logger
}

// Open creates a manager backed by the OS credential store.
func Open(opts Options) (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend(opts.Logger)
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing(opts)
	if err != nil {
		return nil, err
	}
	return NewWithRing(ring), nil
}

// NewWithRing wraps an already opened keyring, e.g. keyring.NewArrayKeyring in tests.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// openRing opens the OS keyring with the backends suitable for this platform.
func openRing(opts Options) (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass requires the 'pass' utility: brew install pass
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
		if opts.FilePassword != "" && opts.FileDir != "" {
			allowedBackends = append(allowedBackends, keyring.FileBackend)
		}
	}

	cfg := keyring.Config{
		ServiceName:      ServiceName,
		AllowedBackends:  allowedBackends,
		PassPrefix:       ServiceName,
		WinCredPrefix:    ServiceName,
		KWalletAppID:     ServiceName,
		KWalletFolder:    ServiceName,
		FileDir:          opts.FileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(opts.FilePassword),
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		if runtime.GOOS != "windows" && opts.FilePassword == "" {
			return nil, errors.Join(ErrUnavailable, err, errors.New("set JIFA_KEYRING_PASSWORD to use an encrypted file keyring"))
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	return ring, nil
}

// SaveToken stores the bearer token. This method is thread-safe.
func (m *Manager) SaveToken(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyToken, token)
	}
	return m.ring.Set(keyring.Item{
		Key:   KeyToken,
		Data:  []byte(token),
		Label: "Jifa token",
	})
}

// LoadToken retrieves the bearer token. A missing entry yields "" and no error.
// This method is thread-safe.
func (m *Manager) LoadToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		token, err := m.backend.Get(KeyToken)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return token, err
	}

	it, err := m.ring.Get(KeyToken)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// ClearToken removes the bearer token. Removing a missing entry is not an
// error. This method is thread-safe.
func (m *Manager) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(KeyToken)
	}
	if err := m.ring.Remove(KeyToken); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
