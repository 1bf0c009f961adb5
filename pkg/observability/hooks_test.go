package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Refresh hooks
	r := NoopRefreshHooks{}
	r.OnCycleStart(ctx, "cycle-1", 8)
	r.OnCycleComplete(ctx, "cycle-1", 3, time.Minute, nil)
	r.OnPartitionStart(ctx, "cycle-1", "rawhide/x86_64")
	r.OnPartitionComplete(ctx, "cycle-1", "rawhide/x86_64", 12, time.Minute, nil)
	r.OnPartitionFallback(ctx, "cycle-1", "rawhide/s390x", nil)
	r.OnPublish(ctx, 3, 8, 120)

	// Query hooks
	q := NoopQueryHooks{}
	q.OnQuery(ctx, "/api/snapshot", 3, time.Millisecond)
	q.OnQueryMiss(ctx, "/api/releases", "rawhide/mips")

	// Storage hooks
	s := NoopStorageHooks{}
	s.OnStoreWrite(ctx, "snapshot/rawhide/x86_64", 1024, nil)
	s.OnWarmStart(ctx, 8)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Refresh().(NoopRefreshHooks); !ok {
		t.Error("Refresh() should return NoopRefreshHooks by default")
	}
	if _, ok := Query().(NoopQueryHooks); !ok {
		t.Error("Query() should return NoopQueryHooks by default")
	}
	if _, ok := Storage().(NoopStorageHooks); !ok {
		t.Error("Storage() should return NoopStorageHooks by default")
	}

	// Set custom hooks
	customRefresh := &testRefreshHooks{}
	SetRefreshHooks(customRefresh)
	if Refresh() != customRefresh {
		t.Error("SetRefreshHooks should set custom hooks")
	}

	customQuery := &testQueryHooks{}
	SetQueryHooks(customQuery)
	if Query() != customQuery {
		t.Error("SetQueryHooks should set custom hooks")
	}

	customStorage := &testStorageHooks{}
	SetStorageHooks(customStorage)
	if Storage() != customStorage {
		t.Error("SetStorageHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Refresh().(NoopRefreshHooks); !ok {
		t.Error("Reset() should restore NoopRefreshHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRefreshHooks{}
	SetRefreshHooks(custom)

	// Setting nil should be ignored
	SetRefreshHooks(nil)

	if Refresh() != custom {
		t.Error("SetRefreshHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testRefreshHooks struct{ NoopRefreshHooks }
type testQueryHooks struct{ NoopQueryHooks }
type testStorageHooks struct{ NoopStorageHooks }
