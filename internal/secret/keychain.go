package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const keychainService = "studio"

// KeychainStore implements SecretStore with the macOS `security` tool.
type KeychainStore struct {
	service string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: keychainService}
}

// Set stores or replaces a generic password.
func (k *KeychainStore) Set(key string, value []byte) error {
	_ = k.Delete(key)

	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", k.service,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get returns nil, nil when the entry does not exist.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", k.service,
		"-w",
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 44 {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	// exits non-zero when the item is missing
	_ = exec.Command("security", "delete-generic-password", "-a", key, "-s", k.service).Run()
	return nil
}
