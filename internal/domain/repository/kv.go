package repository

import "context"

// KeyValueStore is the durable keyed storage used for local state.
// Get returns errors.ErrNotFound for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
