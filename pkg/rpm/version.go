package rpm

import (
	rpmver "github.com/knqyf263/go-rpm-version"
)

// CompareEVR orders two epoch:version-release strings under RPM
// semantics. It returns a negative number if a sorts before b, zero if
// they are equal, and a positive number otherwise. A missing epoch is
// treated as 0 and tilde segments sort before everything else.
func CompareEVR(a, b string) int {
	return rpmver.NewVersion(a).Compare(rpmver.NewVersion(b))
}

// RangesOverlap reports whether two versioned capabilities can be
// satisfied by a common version, i.e. whether the version ranges they
// describe intersect. Either side being unversioned means it covers all
// versions.
//
// This mirrors RPM's own range overlap check: with c the comparison of
// the two EVRs, the ranges intersect when one side extends past the
// other in the right direction, or the EVRs are equal and the senses
// share a direction or both include equality.
func RangesOverlap(a, b Capability) bool {
	if a.Flags == FlagAny || b.Flags == FlagAny {
		return true
	}

	c := CompareEVR(a.EVR, b.EVR)
	switch {
	case c < 0:
		return a.Flags&FlagGreater != 0 || b.Flags&FlagLess != 0
	case c > 0:
		return a.Flags&FlagLess != 0 || b.Flags&FlagGreater != 0
	default:
		if a.Flags&FlagEqual != 0 && b.Flags&FlagEqual != 0 {
			return true
		}
		if a.Flags&FlagLess != 0 && b.Flags&FlagLess != 0 {
			return true
		}
		return a.Flags&FlagGreater != 0 && b.Flags&FlagGreater != 0
	}
}

// Satisfies reports whether the provided capability satisfies the
// requirement. The names must match exactly; version constraints on both
// sides are checked for range intersection. A provider without a version
// satisfies any comparator, which matches how dnf treats unversioned
// Provides.
func Satisfies(provided Capability, required Capability) bool {
	if provided.Name != required.Name {
		return false
	}
	return RangesOverlap(provided, required)
}
