package snapshot

import (
	"sync"
	"testing"
	"time"
)

func TestStore_InitialSnapshot(t *testing.T) {
	s := NewStore()
	cur := s.Current()
	if cur == nil {
		t.Fatal("Current should never return nil")
	}
	if cur.Generation != 0 {
		t.Errorf("initial generation = %d, want 0", cur.Generation)
	}
	if len(cur.Partitions) != 0 {
		t.Errorf("initial snapshot should be empty, got %d partitions", len(cur.Partitions))
	}
}

func TestStore_Publish(t *testing.T) {
	s := NewStore()

	next := &Snapshot{Generation: 1, CreatedAt: time.Now(), Partitions: map[string]PartitionResult{}}
	if err := s.Publish(next); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if s.Current() != next {
		t.Error("Current should return the published snapshot")
	}

	// Equal and lower generations are rejected
	if err := s.Publish(&Snapshot{Generation: 1}); err == nil {
		t.Error("Publish with equal generation should fail")
	}
	if err := s.Publish(&Snapshot{Generation: 0}); err == nil {
		t.Error("Publish with lower generation should fail")
	}
	if got := s.Current().Generation; got != 1 {
		t.Errorf("generation after rejected publishes = %d, want 1", got)
	}
}

func TestStore_MonotonicReads(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for {
				select {
				case <-done:
					return
				default:
				}
				gen := s.Current().Generation
				if gen < last {
					t.Errorf("generation went backwards: %d after %d", gen, last)
					return
				}
				last = gen
			}
		}()
	}

	for gen := uint64(1); gen <= 100; gen++ {
		if err := s.Publish(&Snapshot{Generation: gen, Partitions: map[string]PartitionResult{}}); err != nil {
			t.Fatalf("Publish(%d): %v", gen, err)
		}
	}
	close(done)
	wg.Wait()
}

func TestSnapshot_TotalBroken(t *testing.T) {
	s := &Snapshot{Partitions: map[string]PartitionResult{
		"rawhide/x86_64":  {Items: []Item{{Package: "a"}, {Package: "b"}}},
		"rawhide/aarch64": {Items: []Item{{Package: "a"}}},
		"42/x86_64":       {},
	}}
	if got := s.TotalBroken(); got != 3 {
		t.Errorf("TotalBroken = %d, want 3", got)
	}

	keys := s.PartitionKeys()
	want := []string{"42/x86_64", "rawhide/aarch64", "rawhide/x86_64"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("PartitionKeys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
