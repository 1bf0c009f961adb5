// Package snapshot builds and publishes the immutable result of a full
// refresh cycle.
//
// A [Snapshot] maps every configured partition to its surviving broken
// dependencies. Snapshots are never mutated after construction; the
// [Store] replaces the visible snapshot atomically, so readers observe
// either the old or the new state in full, never a mixture. The
// [Builder] runs one refresh cycle end to end and the [Scheduler]
// triggers it on the configured interval.
package snapshot

import (
	"sort"
	"time"
)

// Item is one package with unresolved dependencies in a partition,
// annotated with its maintainers.
type Item struct {
	// Source is the source package the binary package was built from.
	Source string `json:"source"`

	// Package is the affected package's name.
	Package string `json:"package"`

	// EVR is the affected package's epoch:version-release string.
	EVR string `json:"evr"`

	// Arch is the package architecture, which can differ from the
	// partition architecture (multilib, noarch, src).
	Arch string `json:"arch"`

	// Repo is the repository the package was observed in.
	Repo string `json:"repo"`

	// Admin is the primary point of contact, or "(N/A)" when unknown.
	Admin string `json:"admin"`

	// Maintainers lists everyone responsible for the source package.
	Maintainers []string `json:"maintainers,omitempty"`

	// Broken lists the unresolved capabilities, with comparators.
	Broken []string `json:"broken"`

	// Since records when the package was first observed broken. It is
	// carried over between cycles as long as the breakage persists.
	Since time.Time `json:"since"`
}

// key identifies an item for since-carry-over between cycles.
func (i Item) key() itemKey {
	return itemKey{pkg: i.Package, repo: i.Repo, arch: i.Arch}
}

type itemKey struct {
	pkg, repo, arch string
}

// PartitionResult is one partition's contribution to a snapshot.
type PartitionResult struct {
	// Fresh is true when the result was produced by the cycle that
	// published it, false when it was carried over after a failure or
	// restored from the materialized store.
	Fresh bool `json:"fresh"`

	// UpdatedAt is when the result was last computed from live data.
	UpdatedAt time.Time `json:"updated_at"`

	// Items are the surviving broken dependencies, ordered by package.
	Items []Item `json:"items"`
}

// Snapshot is the immutable, versioned result of one refresh cycle.
type Snapshot struct {
	// Generation increases strictly with every published snapshot.
	Generation uint64 `json:"generation"`

	// CreatedAt is when the snapshot was assembled.
	CreatedAt time.Time `json:"created_at"`

	// Partitions maps "release/arch" keys to their results. A partition
	// absent from configuration never appears here.
	Partitions map[string]PartitionResult `json:"partitions"`

	// Admins maps source package names observed in Partitions to their
	// primary maintainer.
	Admins map[string]string `json:"admins,omitempty"`
}

// Empty returns the initial snapshot served before the first refresh.
func Empty() *Snapshot {
	return &Snapshot{
		Generation: 0,
		CreatedAt:  time.Time{},
		Partitions: map[string]PartitionResult{},
	}
}

// TotalBroken counts the surviving broken packages across all
// partitions.
func (s *Snapshot) TotalBroken() int {
	total := 0
	for _, res := range s.Partitions {
		total += len(res.Items)
	}
	return total
}

// PartitionKeys returns the partition keys in sorted order.
func (s *Snapshot) PartitionKeys() []string {
	keys := make([]string, 0, len(s.Partitions))
	for k := range s.Partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
