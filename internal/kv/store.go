// Package kv defines the durable key-value store the client keeps its local
// state in.
package kv

import (
	"context"
	"errors"
)

// Common errors.
var (
	ErrNotFound    = errors.New("key not found")
	ErrStoreClosed = errors.New("kv store is closed")
)

// Store is an application-scoped key-value store.
// Put replaces the whole value atomically; readers never observe a partial write.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the store.
	Close() error
}
