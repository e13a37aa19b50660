package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore implements Store with one JSON file per key under a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a file-backed store rooted at dir.
// The directory is created on first write if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrInvalidInput)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the document stored under key into v.
func (fs *FileStore) Get(key string, v any) error {
	path, err := fs.path(key)
	if err != nil {
		return &StorageError{Op: "get", Key: key, Err: err}
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return &StorageError{Op: "get", Key: key, Err: err}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Op: "get", Key: key, Err: fmt.Errorf("%w: %v", ErrStorageCorrupt, err)}
	}
	return nil
}

// Set serializes v and stores it under key. The write is atomic: data is
// written to a temporary file and renamed into place.
func (fs *FileStore) Set(key string, v any) error {
	path, err := fs.path(key)
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(fs.dir, 0700); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(fs.dir, key+".*.tmp")
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "set", Key: key, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes the value stored under key.
func (fs *FileStore) Delete(key string) error {
	path, err := fs.path(key)
	if err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close releases resources held by the store.
func (fs *FileStore) Close() error { return nil }

// path maps a key to its backing file, rejecting keys that would escape
// the store directory.
func (fs *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: bad key %q", ErrInvalidInput, key)
	}
	return filepath.Join(fs.dir, key+".json"), nil
}
