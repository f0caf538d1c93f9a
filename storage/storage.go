// Package storage provides the key-value persistence contract used by
// the session layer, with file-backed and in-memory implementations.
// Values are opaque JSON blobs; operations are linearizable per key.
package storage

import "errors"

var ErrNotFound = errors.New("key not found")

// Storage is a minimal key-value store for serialized JSON values.
type Storage interface {
	// Set stores the value under key, overwriting any previous value.
	Set(key string, value []byte) error

	// Get retrieves the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Delete removes the key and reports whether it existed.
	Delete(key string) (bool, error)

	// Flush removes every stored key.
	Flush() error
}
