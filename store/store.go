// Package store persists opaque records by key. The registry package uses
// it to hold serialized counting filters.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when no record exists for the key.
	ErrNotFound = errors.New("store: record not found")

	// ErrInvalidKey is returned for empty keys or keys containing path separators.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Store persists records by key. Implementations copy data on Put and return
// a buffer the caller owns from Get.
type Store interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data under key, replacing any previous record.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the store.
	Close() error
}

// ValidateKey checks that key is usable by every Store implementation.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
