package secret

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// EnvStore implements SecretStore over environment variables. A key is read
// from KEY, or from the file named by KEY_FILE (the convention for Docker
// and Kubernetes secrets). KEY wins when both are set.
type EnvStore struct{}

// NewEnvStore creates a new EnvStore.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// Set stores a secret in the process environment.
func (e *EnvStore) Set(key string, value []byte) error {
	if err := os.Setenv(key, string(value)); err != nil {
		return fmt.Errorf("secret set %s: %w", key, err)
	}
	return nil
}

// Get retrieves a secret. Returns empty slice and nil error if neither the
// variable nor its file is set.
func (e *EnvStore) Get(key string) ([]byte, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv(key + "_FILE"))
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("secret %s: file %s does not exist", key, path)
	}
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", key, err)
	}
	// files written with echo end in a newline
	return bytes.TrimRight(data, "\r\n"), nil
}

// Delete removes the secret from the process environment.
func (e *EnvStore) Delete(key string) error {
	os.Unsetenv(key)
	os.Unsetenv(key + "_FILE")
	return nil
}
