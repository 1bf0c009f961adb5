// Package storage provides the pluggable byte store used to materialize
// snapshot partitions and to warm-start the service after a restart.
//
// Three backends are available: a file store for single-instance
// deployments, a redis store for multi-instance setups, and a null store
// that disables materialization entirely.
package storage

import (
	"context"
	"fmt"
)

// Store persists opaque byte values under string keys. A missing key is
// not an error: Get reports it through the found flag.
type Store interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes the value stored under key. Deleting a missing key
	// is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted in configuration.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Open creates the store selected by backend. dir is used by the file
// backend, addr by the redis backend.
func Open(backend, dir, addr string) (Store, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(dir)
	case BackendRedis:
		return NewRedisStore(addr)
	case BackendNone:
		return NewNullStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
