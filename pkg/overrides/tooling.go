package overrides

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// This file backs the `depscope overrides` maintenance subcommands that
// edit the overrides.json document itself.

// Insert adds packages to the rule at (release, arch, dep), creating
// intermediate maps as needed. A singleton "all" value upgrades the rule
// to a wildcard; an existing wildcard subsumes everything else. Returns
// whether the document changed and a human-readable note.
func Insert(doc Document, release, arch, dep string, packages []string) (bool, string) {
	path := rulePath(release, arch, dep)

	if doc[release] == nil {
		doc[release] = make(map[string]map[string]Entry)
	}
	if doc[release][arch] == nil {
		doc[release][arch] = make(map[string]Entry)
	}
	current := doc[release][arch]
	all := len(packages) == 1 && packages[0] == wildcard

	entry, exists := current[dep]
	switch {
	case exists && entry.All:
		return false, "'all' override subsumes individual overrides, this has no effect"
	case exists && all:
		current[dep] = Entry{All: true}
		return true, fmt.Sprintf("upgrading to 'all' override for %s", path)
	case exists:
		entry.Packages = append(entry.Packages, packages...)
		current[dep] = entry
		return true, fmt.Sprintf("adding new values for %s", path)
	case all:
		current[dep] = Entry{All: true}
		return true, fmt.Sprintf("adding 'all' override for %s", path)
	default:
		current[dep] = Entry{Packages: packages}
		return true, fmt.Sprintf("adding %d overrides for %s", len(packages), path)
	}
}

// Sort orders every package list in place so the rendered document is
// reproducible. Map keys are already emitted sorted by the JSON encoder.
func Sort(doc Document) {
	for _, archMap := range doc {
		for _, depMap := range archMap {
			for dep, entry := range depMap {
				if !entry.All {
					sort.Strings(entry.Packages)
					depMap[dep] = entry
				}
			}
		}
	}
}

// ReadDocument loads an overrides document without rule validation.
// Structural invalidity is still an error.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return doc, nil
}

// WriteDocument sorts and renders the document back to disk in its
// canonical form: two-space indentation, sorted keys, sorted lists.
func WriteDocument(path string, doc Document) error {
	Sort(doc)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
