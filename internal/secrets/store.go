// Package secrets implements environment-aware secret storage and the
// policy engine that fronts it. Callers never talk to a backing store
// directly; every read, write and rotation goes through the Engine so
// environment policy cannot be bypassed.
package secrets

import (
	"context"
	"errors"
)

// Common errors returned by Store implementations
var (
	// ErrNotFound indicates the requested secret does not exist
	ErrNotFound = errors.New("secret not found")

	// ErrReadOnly indicates the store does not accept writes
	ErrReadOnly = errors.New("store is read-only")

	// ErrStoreUnavailable indicates the backing store is unreachable
	ErrStoreUnavailable = errors.New("secret store unavailable")
)

// Store is the raw interface to a backing secret repository. All
// implementations must be safe for concurrent use and honor context
// cancellation on network-facing calls.
//
// A missing secret is ErrNotFound; an unreachable backend is
// ErrStoreUnavailable (possibly wrapped). The Engine treats the two very
// differently in Production, so implementations must never conflate them.
type Store interface {
	// Get retrieves the value stored under path/key
	Get(ctx context.Context, path, key string) (string, error)

	// Put stores a value under path/key
	Put(ctx context.Context, path, key, value string) error

	// Delete removes the value under path/key
	Delete(ctx context.Context, path, key string) error

	// List returns the keys stored under path
	List(ctx context.Context, path string) ([]string, error)

	// Health checks whether the store is reachable and serviceable
	Health(ctx context.Context) error

	// Name identifies the store in logs and error messages
	Name() string
}
