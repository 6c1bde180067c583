package internal

import (
	"sort"
	"strings"
	"sync"
)

// Storage keys. Dialog and message keys are suffixed with the owning id.
const (
	sessionKey         = "session:current"
	registeredUsersKey = "users:registered"
	dialogsKeyPrefix   = "dialogs:"
	messagesKeyPrefix  = "messages:"
)

func dialogsKey(userID string) string {
	return dialogsKeyPrefix + userID
}

func messagesKey(dialogID string) string {
	return messagesKeyPrefix + dialogID
}

// KVStore is the persistence capability used by the session and dialog stores.
// Values are JSON documents.
type KVStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	Close() error
}

// BatchWriter is implemented by stores that can apply several writes as one unit.
type BatchWriter interface {
	WriteBatch(sets []KeyValuePair, removes []string) error
}

// KeyLister is implemented by stores that can enumerate keys by prefix.
type KeyLister interface {
	Keys(prefix string) ([]string, error)
}

// KeyValuePair represents a single stored entry
type KeyValuePair struct {
	Key   string
	Value string
}

// writeBatch applies the writes through BatchWriter when available, otherwise
// one by one in order.
func writeBatch(kv KVStore, sets []KeyValuePair, removes []string) error {
	if bw, ok := kv.(BatchWriter); ok {
		return bw.WriteBatch(sets, removes)
	}
	for _, p := range sets {
		if err := kv.Set(p.Key, p.Value); err != nil {
			return err
		}
	}
	for _, key := range removes {
		if err := kv.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// MemoryStore is an in-process KVStore
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) WriteBatch(sets []KeyValuePair, removes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range sets {
		m.data[p.Key] = p.Value
	}
	for _, key := range removes {
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryStore) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
