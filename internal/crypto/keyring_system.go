package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// systemKeyring stores secrets in the macOS Keychain, the Secret Service on
// Linux or the Windows Credential Manager
type systemKeyring struct{}

func (k *systemKeyring) Get(name string) (string, error) {
	value, err := keyring.Get(ServiceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to retrieve %s from keyring: %w", name, err)
	}

	if value == "" {
		return "", fmt.Errorf("%s is empty: %w", name, ErrSecretNotFound)
	}

	return value, nil
}

func (k *systemKeyring) Set(name, value string) error {
	if value == "" {
		return errors.New("secret cannot be empty")
	}

	if err := keyring.Set(ServiceName, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", name, err)
	}

	return nil
}

// Delete removes a secret. Deleting a missing secret is not an error.
func (k *systemKeyring) Delete(name string) error {
	err := keyring.Delete(ServiceName, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", name, err)
	}
	return nil
}

// IsAvailable checks the keyring by writing and removing a probe entry
func (k *systemKeyring) IsAvailable() bool {
	testKey := "__invoicer_availability_test__"
	if err := keyring.Set(ServiceName, testKey, "test"); err != nil {
		return false
	}

	_ = keyring.Delete(ServiceName, testKey)
	return true
}
