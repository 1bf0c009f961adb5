package overrides

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// wildcard is the key and value that widens a dimension to match
// everything.
const wildcard = "all"

// Document mirrors the on-disk overrides.json layout:
// release → architecture → dependency → entry.
type Document map[string]map[string]map[string]Entry

// Entry is the innermost value of the document: either the wildcard
// string "all" or an explicit list of package names.
type Entry struct {
	All      bool
	Packages []string
}

// UnmarshalJSON accepts either the string "all" or an array of package
// names. Any other shape is invalid.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != wildcard {
			return fmt.Errorf("%w: invalid string value %q, only %q is allowed", ErrInvalid, s, wildcard)
		}
		*e = Entry{All: true}
		return nil
	}

	var pkgs []string
	if err := json.Unmarshal(data, &pkgs); err != nil {
		return fmt.Errorf("%w: entry must be %q or a list of package names", ErrInvalid, wildcard)
	}
	*e = Entry{Packages: pkgs}
	return nil
}

// MarshalJSON renders the entry back into its on-disk form.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.All {
		return json.Marshal(wildcard)
	}
	return json.Marshal(e.Packages)
}

// Load reads and validates an overrides file, returning a ready filter.
// Unknown release or architecture identifiers are fatal.
func Load(path string, releases, arches []string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}
	return Parse(data, releases, arches)
}

// Parse validates a raw overrides document against the configured
// release and architecture names and flattens it into rules.
func Parse(data []byte, releases, arches []string) (*Filter, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	validRel := toSet(releases)
	validArch := toSet(arches)

	var rules []Rule
	for _, release := range sortedKeys(doc) {
		if release != wildcard {
			if _, ok := validRel[release]; !ok {
				return nil, fmt.Errorf("%w: /%s is not a configured release", ErrInvalid, release)
			}
		}
		for _, arch := range sortedKeys(doc[release]) {
			if arch != wildcard {
				if _, ok := validArch[arch]; !ok {
					return nil, fmt.Errorf("%w: /%s/%s is not a configured architecture", ErrInvalid, release, arch)
				}
			}
			for _, dep := range sortedKeys(doc[release][arch]) {
				entry := doc[release][arch][dep]
				rule := Rule{
					Release:    scopeFromKey(release),
					Arch:       scopeFromKey(arch),
					Dependency: ScopeOf(dep),
					Path:       rulePath(release, arch, dep),
				}
				if entry.All {
					rule.Packages = PackagesAny()
				} else {
					rule.Packages = PackagesOf(entry.Packages...)
				}
				rules = append(rules, rule)
			}
		}
	}

	f := NewFilter(rules)
	f.doc = doc
	return f, nil
}

// BroadRules returns the paths of rules that suppress a dependency for
// every package. These deserve manual review.
func (d Document) BroadRules() []string {
	var broad []string
	for _, release := range sortedKeys(d) {
		for _, arch := range sortedKeys(d[release]) {
			for _, dep := range sortedKeys(d[release][arch]) {
				if d[release][arch][dep].All {
					broad = append(broad, rulePath(release, arch, dep))
				}
			}
		}
	}
	return broad
}

func scopeFromKey(key string) Scope {
	if key == wildcard {
		return ScopeAny()
	}
	return ScopeOf(key)
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
