package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "taskboard"

// KeyringStore stores secrets in the OS keychain (macOS Keychain, Secret
// Service, Windows Credential Manager, pass), falling back to an encrypted
// file under FileDir.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the system keyring. fileDir is used only by the
// file backend.
func NewKeyringStore(fileDir string) (*KeyringStore, error) {
	ring, err := openKeyring(fileDir)
	if err != nil {
		return nil, err
	}
	return &KeyringStore{ring: ring}, nil
}

// openKeyring returns a configured keyring instance.
func openKeyring(fileDir string) (keyring.Keyring, error) {
	if fileDir == "" {
		fileDir = "~/.config/taskboard/credentials"
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("taskboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func (s *KeyringStore) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func (s *KeyringStore) Set(key string, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Clear removes a credential by key from the system keyring.
func (s *KeyringStore) Clear(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Open returns the store named by backend: "keyring" or "memory".
func Open(backend, fileDir string) (Store, error) {
	switch backend {
	case "", "keyring":
		return NewKeyringStore(fileDir)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", backend)
	}
}
