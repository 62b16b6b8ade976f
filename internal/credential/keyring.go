package credential

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "reportdash"

// Keyring entry names for the three Graph client-credential secrets.
const (
	KeyTenantID     = "tenant_id"
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
)

// envNames maps keyring entry names to their environment fallbacks.
var envNames = map[string]string{
	KeyTenantID:     "TENANT_ID",
	KeyClientID:     "CLIENT_ID",
	KeyClientSecret: "CLIENT_SECRET",
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/reportdash/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("reportdash-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Resolve looks a secret up in the keyring, falling back to its
// environment variable. An empty string means the secret is absent from
// both places; the caller decides whether that is fatal.
func Resolve(key string) string {
	if value, err := Get(key); err == nil && value != "" {
		return value
	}
	if env, ok := envNames[key]; ok {
		return os.Getenv(env)
	}
	return ""
}
