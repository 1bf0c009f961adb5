// Package rpm models RPM package metadata for dependency analysis.
//
// The central types are [Package], [Capability], and [Requirement]. A
// package provides a set of capabilities (its own name plus explicit
// Provides entries, shared libraries, file paths) and requires a set of
// capabilities, each optionally constrained by a version comparator.
// Requirements may also be rich (boolean) expressions combining several
// alternatives; see [Requirement.Rich].
//
// Parsing helpers convert the textual forms emitted by repository query
// tools (NEVRA strings, "name op evr" dependency strings, parenthesized
// rich dependencies) into these types. Version ordering and comparator
// satisfaction follow RPM EVR semantics, including epochs and tilde
// pre-release markers.
package rpm

import (
	"fmt"
	"strings"
)

// CompareFlags encodes a version comparator as RPM sense flags.
// A comparator is any non-empty combination of less, greater, and equal.
type CompareFlags uint8

// Comparator flag bits.
const (
	FlagLess CompareFlags = 1 << iota
	FlagGreater
	FlagEqual

	// FlagAny marks an unversioned dependency: any provider of the
	// capability name satisfies it.
	FlagAny CompareFlags = 0
)

// ParseCompareFlags converts a comparator token ("=", "<", "<=", ">", ">=")
// into flags. The empty string yields FlagAny.
func ParseCompareFlags(op string) (CompareFlags, error) {
	switch op {
	case "":
		return FlagAny, nil
	case "=", "==":
		return FlagEqual, nil
	case "<":
		return FlagLess, nil
	case "<=":
		return FlagLess | FlagEqual, nil
	case ">":
		return FlagGreater, nil
	case ">=":
		return FlagGreater | FlagEqual, nil
	}
	return 0, fmt.Errorf("unknown version comparator %q", op)
}

// String renders the flags back into their comparator token.
func (f CompareFlags) String() string {
	switch f {
	case FlagAny:
		return ""
	case FlagEqual:
		return "="
	case FlagLess:
		return "<"
	case FlagLess | FlagEqual:
		return "<="
	case FlagGreater:
		return ">"
	case FlagGreater | FlagEqual:
		return ">="
	}
	return "?"
}

// Capability is a named facility with an optional version constraint.
// Both provided capabilities ("libfoo = 1.2-3") and simple requirements
// ("libfoo >= 1.0") share this shape.
type Capability struct {
	Name  string       `json:"name"`
	Flags CompareFlags `json:"flags,omitempty"`
	EVR   string       `json:"evr,omitempty"`
}

// String renders the capability in the conventional "name op evr" form.
func (c Capability) String() string {
	if c.Flags == FlagAny || c.EVR == "" {
		return c.Name
	}
	return fmt.Sprintf("%s %s %s", c.Name, c.Flags, c.EVR)
}

// RichOp is the boolean operator of a rich dependency.
type RichOp string

// Supported rich dependency operators.
const (
	RichOr      RichOp = "or"
	RichAnd     RichOp = "and"
	RichIf      RichOp = "if"
	RichUnless  RichOp = "unless"
	RichWith    RichOp = "with"
	RichWithout RichOp = "without"
)

// RichDep is a parsed boolean dependency expression such as
// "(gcc >= 8 or clang)". Terms are evaluated under Op; nested expressions
// appear as terms whose Rich field is set. The conditional operators
// "if" and "unless" carry two terms (requirement, condition) or three
// when an "else" branch is present.
type RichDep struct {
	Op    RichOp        `json:"op"`
	Terms []Requirement `json:"terms"`
}

// Requirement is a single declared dependency of a package.
// For simple requirements the embedded Capability carries the name and
// optional comparator. For rich requirements Rich is non-nil and the
// Capability name holds the raw expression for display purposes.
type Requirement struct {
	Capability

	// Build marks a build-time requirement (BuildRequires) as opposed to
	// an install-time one.
	Build bool `json:"build,omitempty"`

	// Rich is set for boolean dependency expressions.
	Rich *RichDep `json:"rich,omitempty"`
}

// IsRich reports whether the requirement is a boolean expression.
func (r Requirement) IsRich() bool { return r.Rich != nil }

// Package is one binary or source package as observed in a repository.
type Package struct {
	Name       string        `json:"name"`
	EVR        string        `json:"evr"`
	Arch       string        `json:"arch"`
	SourceName string        `json:"source"`
	Repo       string        `json:"repo,omitempty"`
	Requires   []Requirement `json:"requires,omitempty"`
	Provides   []Capability  `json:"provides,omitempty"`
}

// NVRA renders the package identity as "name-evr.arch".
func (p Package) NVRA() string {
	return fmt.Sprintf("%s-%s.%s", p.Name, p.EVR, p.Arch)
}

// IsSource reports whether the package is a source package.
func (p Package) IsSource() bool { return p.Arch == "src" }

// ParseCapability parses a "name [op evr]" dependency string into a
// Capability. A bare name yields an unversioned capability. Strings with
// a comparator but no version, or with trailing garbage, are rejected.
func ParseCapability(s string) (Capability, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Capability{}, fmt.Errorf("empty capability")
	}

	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return Capability{Name: fields[0]}, nil
	case 3:
		flags, err := ParseCompareFlags(fields[1])
		if err != nil {
			return Capability{}, fmt.Errorf("capability %q: %w", s, err)
		}
		if flags == FlagAny {
			return Capability{}, fmt.Errorf("capability %q: missing comparator", s)
		}
		return Capability{Name: fields[0], Flags: flags, EVR: fields[2]}, nil
	}
	return Capability{}, fmt.Errorf("malformed capability %q", s)
}
