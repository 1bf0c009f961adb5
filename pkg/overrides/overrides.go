// Package overrides implements the allow-list that removes known false
// positives from broken-dependency results.
//
// Rules are loaded from an overrides.json document shaped as
// release → architecture → dependency → ("all" | [packages]). A broken
// dependency is suppressed when at least one rule matches it on all four
// dimensions: release, architecture, package, and dependency name.
package overrides

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalid is returned when the overrides document is structurally
// invalid or references unknown releases or architectures. It is fatal
// at load time: the service must not run with an unvalidated rule set.
var ErrInvalid = errors.New("invalid overrides")

// Scope is one match dimension of a rule: either a specific name or a
// wildcard covering everything.
type Scope struct {
	Any  bool
	Name string
}

// ScopeAny returns a wildcard scope.
func ScopeAny() Scope { return Scope{Any: true} }

// ScopeOf returns a scope matching exactly name.
func ScopeOf(name string) Scope { return Scope{Name: name} }

// Matches reports whether the scope covers name.
func (s Scope) Matches(name string) bool {
	return s.Any || s.Name == name
}

// PackageScope is the package dimension of a rule: either a wildcard or
// an explicit set of package names.
type PackageScope struct {
	Any   bool
	Names map[string]struct{}
}

// PackagesAny returns a wildcard package scope.
func PackagesAny() PackageScope { return PackageScope{Any: true} }

// PackagesOf returns a scope covering exactly the named packages.
func PackagesOf(names ...string) PackageScope {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return PackageScope{Names: set}
}

// Matches reports whether the scope covers name.
func (s PackageScope) Matches(name string) bool {
	if s.Any {
		return true
	}
	_, ok := s.Names[name]
	return ok
}

// Rule suppresses broken dependencies matching all four of its
// dimensions. Rules are independent and additive: there is no priority
// and no negation.
type Rule struct {
	Release    Scope
	Arch       Scope
	Dependency Scope
	Packages   PackageScope

	// Path identifies the rule in the source document, e.g.
	// "/rawhide/x86_64/libfoo.so.1". Used for suppression statistics.
	Path string
}

// Matches reports whether the rule covers the given broken dependency.
func (r *Rule) Matches(release, arch, pkg, dep string) bool {
	return r.Release.Matches(release) &&
		r.Arch.Matches(arch) &&
		r.Packages.Matches(pkg) &&
		r.Dependency.Matches(dep)
}

// Filter holds a validated rule set and counts suppressions per rule.
// Suppressed is safe for concurrent use.
type Filter struct {
	rules []Rule
	doc   Document

	mu    sync.Mutex
	stats map[string]uint64
}

// NewFilter creates a filter over an explicit rule set. Most callers
// use [Load] or [Parse] instead.
func NewFilter(rules []Rule) *Filter {
	return &Filter{rules: rules, stats: make(map[string]uint64)}
}

// Suppressed reports whether any rule matches the broken dependency
// identified by (release, arch, pkg, dep). A match increments the
// matching rule's suppression counter.
func (f *Filter) Suppressed(release, arch, pkg, dep string) bool {
	for i := range f.rules {
		if f.rules[i].Matches(release, arch, pkg, dep) {
			f.mu.Lock()
			f.stats[f.rules[i].Path]++
			f.mu.Unlock()
			return true
		}
	}
	return false
}

// Stats returns a copy of the per-rule suppression counters keyed by
// rule path.
func (f *Filter) Stats() map[string]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]uint64, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out
}

// Rules returns the flattened rule set.
func (f *Filter) Rules() []Rule { return f.rules }

// Document returns the source document the filter was loaded from, or
// nil for filters built directly from rules.
func (f *Filter) Document() Document { return f.doc }

func rulePath(release, arch, dep string) string {
	return fmt.Sprintf("/%s/%s/%s", release, arch, dep)
}
