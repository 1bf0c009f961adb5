// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about refresh cycles, snapshot publication, and query
// serving.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRefreshHooks(&myRefreshHooks{})
//	    observability.SetQueryHooks(&myQueryHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Refresh().OnPartitionStart(ctx, cycleID, partition)
//	// ... fetch and analyze ...
//	observability.Refresh().OnPartitionComplete(ctx, cycleID, partition, broken, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Refresh Hooks
// =============================================================================

// RefreshHooks receives events from refresh cycles.
type RefreshHooks interface {
	// Cycle events
	OnCycleStart(ctx context.Context, cycleID string, partitions int)
	OnCycleComplete(ctx context.Context, cycleID string, generation uint64, duration time.Duration, err error)

	// Partition events
	OnPartitionStart(ctx context.Context, cycleID, partition string)
	OnPartitionComplete(ctx context.Context, cycleID, partition string, broken int, duration time.Duration, err error)

	// OnPartitionFallback records a partition retaining its previous
	// snapshot contribution after a failed fetch or analysis.
	OnPartitionFallback(ctx context.Context, cycleID, partition string, err error)

	// OnPublish records a new snapshot becoming visible to readers.
	OnPublish(ctx context.Context, generation uint64, partitions, broken int)
}

// =============================================================================
// Query Hooks
// =============================================================================

// QueryHooks receives events from the read API.
type QueryHooks interface {
	// OnQuery records a served read request.
	OnQuery(ctx context.Context, endpoint string, generation uint64, duration time.Duration)

	// OnQueryMiss records a request for an unknown partition.
	OnQueryMiss(ctx context.Context, endpoint, partition string)
}

// =============================================================================
// Storage Hooks
// =============================================================================

// StorageHooks receives events from snapshot materialization.
type StorageHooks interface {
	// OnStoreWrite records a materialized partition write.
	OnStoreWrite(ctx context.Context, key string, size int, err error)

	// OnWarmStart records partitions restored from the store at boot.
	OnWarmStart(ctx context.Context, restored int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRefreshHooks is a no-op implementation of RefreshHooks.
type NoopRefreshHooks struct{}

func (NoopRefreshHooks) OnCycleStart(context.Context, string, int) {}
func (NoopRefreshHooks) OnCycleComplete(context.Context, string, uint64, time.Duration, error) {
}
func (NoopRefreshHooks) OnPartitionStart(context.Context, string, string) {}
func (NoopRefreshHooks) OnPartitionComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopRefreshHooks) OnPartitionFallback(context.Context, string, string, error) {}
func (NoopRefreshHooks) OnPublish(context.Context, uint64, int, int)                {}

// NoopQueryHooks is a no-op implementation of QueryHooks.
type NoopQueryHooks struct{}

func (NoopQueryHooks) OnQuery(context.Context, string, uint64, time.Duration) {}
func (NoopQueryHooks) OnQueryMiss(context.Context, string, string)            {}

// NoopStorageHooks is a no-op implementation of StorageHooks.
type NoopStorageHooks struct{}

func (NoopStorageHooks) OnStoreWrite(context.Context, string, int, error) {}
func (NoopStorageHooks) OnWarmStart(context.Context, int)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	refreshHooks RefreshHooks = NoopRefreshHooks{}
	queryHooks   QueryHooks   = NoopQueryHooks{}
	storageHooks StorageHooks = NoopStorageHooks{}
	hooksMu      sync.RWMutex
)

// SetRefreshHooks registers custom refresh hooks.
// This should be called once at application startup before the scheduler runs.
func SetRefreshHooks(h RefreshHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		refreshHooks = h
	}
}

// SetQueryHooks registers custom query hooks.
// This should be called once at application startup before serving requests.
func SetQueryHooks(h QueryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		queryHooks = h
	}
}

// SetStorageHooks registers custom storage hooks.
// This should be called once at application startup before any store operations.
func SetStorageHooks(h StorageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storageHooks = h
	}
}

// Refresh returns the registered refresh hooks.
func Refresh() RefreshHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return refreshHooks
}

// Query returns the registered query hooks.
func Query() QueryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return queryHooks
}

// Storage returns the registered storage hooks.
func Storage() StorageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storageHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	refreshHooks = NoopRefreshHooks{}
	queryHooks = NoopQueryHooks{}
	storageHooks = NoopStorageHooks{}
}
