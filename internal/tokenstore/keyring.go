package tokenstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "skillcred-cli"

// KeyringStore persists the token in the OS keychain/credential manager,
// one slot per backend host
type KeyringStore struct {
	host string
}

// NewKeyringStore returns the slot for host
func NewKeyringStore(host string) *KeyringStore {
	return &KeyringStore{host: host}
}

func (k *KeyringStore) key() string {
	return fmt.Sprintf("token-%s", k.host)
}

func (k *KeyringStore) Load() (string, error) {
	token, err := keyring.Get(keyringService, k.key())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (k *KeyringStore) Save(token string) error {
	if err := keyring.Set(keyringService, k.key(), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (k *KeyringStore) Delete() error {
	if err := keyring.Delete(keyringService, k.key()); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
