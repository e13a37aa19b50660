package storage

import (
	"encoding/json"
	"sync"
)

// MemoryStore implements Store with an in-memory map. Values are stored as
// serialized JSON so that Get/Set round-trips behave exactly like FileStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get reads the document stored under key into v.
func (ms *MemoryStore) Get(key string, v any) error {
	ms.mu.RLock()
	data, ok := ms.data[key]
	ms.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Op: "get", Key: key, Err: err}
	}
	return nil
}

// Set serializes v and stores it under key.
func (ms *MemoryStore) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}

	ms.mu.Lock()
	ms.data[key] = data
	ms.mu.Unlock()
	return nil
}

// Delete removes the value stored under key.
func (ms *MemoryStore) Delete(key string) error {
	ms.mu.Lock()
	delete(ms.data, key)
	ms.mu.Unlock()
	return nil
}

// Close releases resources held by the store.
func (ms *MemoryStore) Close() error { return nil }
