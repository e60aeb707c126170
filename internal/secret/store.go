package secret

import "sync"

// BackendAPIKey is the account name under which the backend API key is
// stored.
const BackendAPIKey = "backend-api-key"

// SecretStore keeps credentials out of the config file. The desktop build
// uses the macOS Keychain; tests and the headless server use MemoryStore.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// MemoryStore is an in-process SecretStore.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data[key]...), nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// ResolveAPIKey prefers an explicitly configured key and falls back to the
// store.
func ResolveAPIKey(configured string, store SecretStore) string {
	if configured != "" || store == nil {
		return configured
	}
	v, err := store.Get(BackendAPIKey)
	if err != nil {
		return ""
	}
	return string(v)
}
