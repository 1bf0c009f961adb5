package snapshot

import (
	"fmt"
	"sync/atomic"
)

// Store holds the currently published snapshot. Current never blocks
// and Publish is called by a single writer per cycle; readers observe
// generations in non-decreasing order.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding the empty initial snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(Empty())
	return s
}

// Current returns the latest published snapshot. Before the first
// publish this is the empty generation-zero snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish makes snap the visible snapshot. The generation must be
// strictly greater than the current one; a stale publish is rejected.
func (s *Store) Publish(snap *Snapshot) error {
	cur := s.current.Load()
	if snap.Generation <= cur.Generation {
		return fmt.Errorf("stale publish: generation %d is not greater than %d",
			snap.Generation, cur.Generation)
	}
	s.current.Store(snap)
	return nil
}
