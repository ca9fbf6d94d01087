package crypto

import (
	"fmt"
	"os"
	"sync"
)

// Environment variables consulted when no OS keyring is reachable
const (
	EnvToken    = "INVOICER_TOKEN"
	EnvCacheKey = "INVOICER_CACHE_KEY"
)

var envNames = map[string]string{
	TokenKey:    EnvToken,
	CacheKeyKey: EnvCacheKey,
}

// envKeyring reads secrets from the environment. Values set during the
// process lifetime are kept in memory only.
type envKeyring struct {
	mu      sync.Mutex
	session map[string]string
}

func newEnvKeyring() *envKeyring {
	return &envKeyring{session: make(map[string]string)}
}

func (k *envKeyring) Get(name string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if v, ok := k.session[name]; ok {
		return v, nil
	}
	if env, ok := envNames[name]; ok {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%s not set: %w", env, ErrSecretNotFound)
	}
	return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
}

func (k *envKeyring) Set(name, value string) error {
	if value == "" {
		return fmt.Errorf("secret cannot be empty")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.session[name] = value
	return nil
}

func (k *envKeyring) Delete(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.session, name)
	return nil
}

// IsAvailable reports whether the token variable is set
func (k *envKeyring) IsAvailable() bool {
	return os.Getenv(EnvToken) != ""
}
