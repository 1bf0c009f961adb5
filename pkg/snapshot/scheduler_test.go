package snapshot

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/maintainers"
	"github.com/depscope/depscope/pkg/rpm"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScheduler_SkipIfBusy(t *testing.T) {
	now := time.Now()
	release := make(chan struct{})
	started := make(chan struct{}, 8)
	service := serviceFunc(func(ctx context.Context, part config.Partition) ([]rpm.Package, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	})
	b := newTestBuilder(service, nil, &now)
	s := NewScheduler(b, maintainers.Static{}, time.Hour, time.Hour, testLogger())

	if !s.Trigger(context.Background()) {
		t.Fatal("first trigger should start a cycle")
	}
	<-started

	// The first cycle is still blocked in the service call.
	if s.Trigger(context.Background()) {
		t.Error("trigger while busy should be dropped")
	}
	if !s.Busy() {
		t.Error("scheduler should report busy while a cycle runs")
	}

	close(release)
	waitFor(t, func() bool { return !s.Busy() }, "cycle never finished")

	if b.Store().Current().Generation != 1 {
		t.Errorf("generation = %d, want 1; dropped triggers must not queue",
			b.Store().Current().Generation)
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	now := time.Now()
	b := newTestBuilder(serviceFunc(func(ctx context.Context, part config.Partition) ([]rpm.Package, error) {
		return nil, nil
	}), nil, &now)
	s := NewScheduler(b, maintainers.Static{}, time.Hour, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// The immediate first cycle publishes generation 1.
	waitFor(t, func() bool { return b.Store().Current().Generation == 1 }, "initial cycle never published")

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

type countingDirectory struct {
	refreshes atomic.Int64
}

func (d *countingDirectory) Admin(string) (string, bool) { return "", false }
func (d *countingDirectory) Maintainers(string) []string { return nil }
func (d *countingDirectory) Refresh(context.Context) error {
	d.refreshes.Add(1)
	return nil
}

func TestScheduler_MaintainerInterval(t *testing.T) {
	now := time.Now()
	b := newTestBuilder(serviceFunc(func(ctx context.Context, part config.Partition) ([]rpm.Package, error) {
		return nil, nil
	}), nil, &now)
	dir := &countingDirectory{}
	// Maintainer refreshes tick independently of dependency refreshes.
	s := NewScheduler(b, dir, time.Hour, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, func() bool { return dir.refreshes.Load() >= 3 }, "maintainer refresh never ticked")

	if gen := b.Store().Current().Generation; gen > 1 {
		t.Errorf("generation = %d, want 1; maintainer ticks must not trigger refresh cycles", gen)
	}

	cancel()
	<-done
}

func TestScheduler_PanicRecovery(t *testing.T) {
	now := time.Now()
	service := serviceFunc(func(ctx context.Context, part config.Partition) ([]rpm.Package, error) {
		panic("metadata parser exploded")
	})
	b := newTestBuilder(service, nil, &now)
	s := NewScheduler(b, maintainers.Static{}, time.Hour, time.Hour, testLogger())

	s.Trigger(context.Background())
	waitFor(t, func() bool { return !s.Busy() }, "panicked cycle never returned to idle")

	// The scheduler stays usable after a panic.
	if !s.Trigger(context.Background()) {
		t.Error("scheduler should accept triggers after a panicked cycle")
	}
	waitFor(t, func() bool { return !s.Busy() }, "second cycle never finished")
}
