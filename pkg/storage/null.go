package storage

import "context"

// NullStore is a no-op store that never persists anything. Useful when
// materialization is disabled and for tests.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() *NullStore { return &NullStore{} }

// Get always reports a missing key.
func (s *NullStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (s *NullStore) Set(ctx context.Context, key string, data []byte) error { return nil }

// Delete does nothing.
func (s *NullStore) Delete(ctx context.Context, key string) error { return nil }

// Close does nothing.
func (s *NullStore) Close() error { return nil }

var _ Store = (*NullStore)(nil)
