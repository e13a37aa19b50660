// Package storage provides durable key/value persistence for client state.
//
// It is the Go counterpart of the browser's localStorage: a small set of
// named JSON documents (tokens, user info, list preferences) that survive
// process restarts.
package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested key was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
)

// StorageError wraps storage errors with operation and key context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.Key, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("get", "set", "delete").
	Op string
	// Key is the storage key involved.
	Key string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Store persists named JSON documents.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get reads the document stored under key into v.
	// It returns ErrNotFound if the key has no stored value.
	Get(key string, v any) error
	// Set serializes v and stores it under key, replacing any prior value.
	Set(key string, v any) error
	// Delete removes the value stored under key. Deleting a missing key
	// is not an error.
	Delete(key string) error
	// Close releases any resources held by the store.
	Close() error
}

// Keys used by the application. They match the names the browser client
// kept in localStorage.
const (
	// KeyAccessToken holds the current access token.
	KeyAccessToken = "accessToken"
	// KeyRefreshToken holds the current refresh token.
	KeyRefreshToken = "refreshToken"
	// KeyUserInfo holds the JSON-serialized authenticated member record.
	KeyUserInfo = "userInfo"
	// KeyBoardPage holds persisted board list preferences.
	KeyBoardPage = "board-page"
)
