package repository

import (
	"context"
)

// KVStore defines the interface for blob persistence.
// A key that was never written is reported as not found, not as an error.
type KVStore interface {
	// Get returns the value stored under key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error
}
