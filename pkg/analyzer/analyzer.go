// Package analyzer detects unsatisfiable dependencies within one
// repository partition.
//
// The analysis is intentionally non-transitive: a requirement is broken
// when no package in the partition provides a matching capability. It
// does not attempt to compute an installable closure. Partitions are
// analyzed in isolation, so a capability provided only on another
// architecture does not count.
package analyzer

import (
	"github.com/depscope/depscope/pkg/rpm"
)

// Broken records one unsatisfied requirement of one package.
type Broken struct {
	// Package is the requiring package.
	Package rpm.Package

	// Requirement is the declared dependency that could not be resolved.
	Requirement rpm.Requirement

	// Capability is the unresolved capability rendered with its
	// comparator, e.g. "libfoo.so.1()(64bit)" or "foo >= 2.0".
	Capability string
}

// Index maps capability names to the packages providing them, scoped to
// one partition's package set.
type Index struct {
	providers map[string][]rpm.Capability
}

// BuildIndex constructs the provided-capability index for a package set.
// Every package implicitly provides its own name at its own version in
// addition to its explicit Provides entries.
func BuildIndex(pkgs []rpm.Package) *Index {
	ix := &Index{providers: make(map[string][]rpm.Capability, len(pkgs)*8)}
	for i := range pkgs {
		self := rpm.Capability{
			Name:  pkgs[i].Name,
			Flags: rpm.FlagEqual,
			EVR:   pkgs[i].EVR,
		}
		ix.add(self)
		for _, c := range pkgs[i].Provides {
			ix.add(c)
		}
	}
	return ix
}

func (ix *Index) add(c rpm.Capability) {
	ix.providers[c.Name] = append(ix.providers[c.Name], c)
}

// Satisfied reports whether the requirement resolves against the index.
// Rich requirements are evaluated recursively: "or" needs one branch,
// "and" needs all, "with"/"without" intersect or exclude version ranges
// over a single provider, and the conditionals "if"/"unless" gate their
// first term on whether the condition is itself satisfiable.
func (ix *Index) Satisfied(req rpm.Requirement) bool {
	if req.IsRich() {
		return ix.satisfiedRich(req.Rich)
	}
	for _, provided := range ix.providers[req.Name] {
		if rpm.Satisfies(provided, req.Capability) {
			return true
		}
	}
	return false
}

func (ix *Index) satisfiedRich(dep *rpm.RichDep) bool {
	switch dep.Op {
	case rpm.RichOr:
		for _, term := range dep.Terms {
			if ix.Satisfied(term) {
				return true
			}
		}
		return false

	case rpm.RichAnd:
		for _, term := range dep.Terms {
			if !ix.Satisfied(term) {
				return false
			}
		}
		return true

	case rpm.RichWith:
		return ix.satisfiedWith(dep.Terms)

	case rpm.RichWithout:
		return ix.satisfiedWithout(dep.Terms)

	case rpm.RichIf:
		// "A if B [else C]": A is only required when B resolves.
		if ix.Satisfied(dep.Terms[1]) {
			return ix.Satisfied(dep.Terms[0])
		}
		if len(dep.Terms) == 3 {
			return ix.Satisfied(dep.Terms[2])
		}
		return true

	case rpm.RichUnless:
		// "A unless B [else C]": the inverse of "if".
		if !ix.Satisfied(dep.Terms[1]) {
			return ix.Satisfied(dep.Terms[0])
		}
		if len(dep.Terms) == 3 {
			return ix.Satisfied(dep.Terms[2])
		}
		return true
	}
	return false
}

// satisfiedWith resolves "(A with B)": every term must hold against one
// and the same provider entry. When the terms do not all constrain the
// same capability name the single-provider check is not expressible over
// a name-keyed index, so each term is resolved independently.
func (ix *Index) satisfiedWith(terms []rpm.Requirement) bool {
	name := terms[0].Name
	for _, term := range terms {
		if term.IsRich() || term.Name != name {
			for _, t := range terms {
				if !ix.Satisfied(t) {
					return false
				}
			}
			return true
		}
	}

	for _, provided := range ix.providers[name] {
		ok := true
		for _, term := range terms {
			if !rpm.Satisfies(provided, term.Capability) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// satisfiedWithout resolves "(A without B)": some provider must satisfy
// the first term while matching none of the excluded terms. Excluded
// terms on a different capability name fall back to plain resolution of
// the first term.
func (ix *Index) satisfiedWithout(terms []rpm.Requirement) bool {
	first := terms[0]
	if first.IsRich() {
		return ix.Satisfied(first)
	}
	for _, term := range terms[1:] {
		if term.IsRich() || term.Name != first.Name {
			return ix.Satisfied(first)
		}
	}

	for _, provided := range ix.providers[first.Name] {
		if !rpm.Satisfies(provided, first.Capability) {
			continue
		}
		excluded := false
		for _, term := range terms[1:] {
			if rpm.Satisfies(provided, term.Capability) {
				excluded = true
				break
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

// Analyze returns every broken dependency in the partition's package
// set. Order follows the input package order; callers treat the result
// as a set.
func Analyze(pkgs []rpm.Package) []Broken {
	ix := BuildIndex(pkgs)

	var broken []Broken
	for i := range pkgs {
		for _, req := range pkgs[i].Requires {
			if ix.Satisfied(req) {
				continue
			}
			broken = append(broken, Broken{
				Package:     pkgs[i],
				Requirement: req,
				Capability:  req.Capability.String(),
			})
		}
	}
	return broken
}
