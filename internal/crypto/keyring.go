package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// Keyring provides secure storage for named secrets
type Keyring interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
	IsAvailable() bool
}

const ServiceName = "invoicer"

// Secret names
const (
	TokenKey    = "api-access-token"
	CacheKeyKey = "cache-encryption-key"
)

// ErrSecretNotFound is returned when a secret has never been stored
var ErrSecretNotFound = errors.New("secret not found")

// NewKeyring returns the OS keyring when it is reachable, otherwise the
// environment variable fallback
func NewKeyring() Keyring {
	system := &systemKeyring{}
	if system.IsAvailable() {
		return system
	}
	return newEnvKeyring()
}

// CacheKey returns the cache encryption key, generating and storing a new
// one on first use
func CacheKey(k Keyring) (string, error) {
	key, err := k.Get(CacheKeyKey)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}

	key, err = GenerateKey()
	if err != nil {
		return "", err
	}
	if err := k.Set(CacheKeyKey, key); err != nil {
		return "", err
	}
	return key, nil
}

// GenerateKey returns 32 random bytes hex-encoded
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
