package rpm

import (
	"fmt"
	"strings"
)

// NEVRA is a fully qualified package identity:
// name, epoch, version, release, architecture.
type NEVRA struct {
	Name    string
	Epoch   string
	Version string
	Release string
	Arch    string
}

// EVR renders the epoch:version-release part. The epoch is always
// included, defaulting to "0".
func (n NEVRA) EVR() string {
	epoch := n.Epoch
	if epoch == "" {
		epoch = "0"
	}
	return fmt.Sprintf("%s:%s-%s", epoch, n.Version, n.Release)
}

// String renders the canonical "name-epoch:version-release.arch" form.
func (n NEVRA) String() string {
	return fmt.Sprintf("%s-%s.%s", n.Name, n.EVR(), n.Arch)
}

// parseNEVRA splits a "name-[epoch:]version-release.arch" string.
// The split runs right to left: the architecture is everything after the
// last dot, the release after the last dash, the version after the
// second-to-last dash. A missing epoch defaults to "0".
func parseNEVRA(s string) (NEVRA, error) {
	archIdx := strings.LastIndex(s, ".")
	if archIdx <= 0 || archIdx == len(s)-1 {
		return NEVRA{}, fmt.Errorf("malformed nevra %q: no architecture suffix", s)
	}
	nevr, arch := s[:archIdx], s[archIdx+1:]

	relIdx := strings.LastIndex(nevr, "-")
	if relIdx <= 0 || relIdx == len(nevr)-1 {
		return NEVRA{}, fmt.Errorf("malformed nevra %q: no release", s)
	}
	nev, release := nevr[:relIdx], nevr[relIdx+1:]

	verIdx := strings.LastIndex(nev, "-")
	if verIdx <= 0 || verIdx == len(nev)-1 {
		return NEVRA{}, fmt.Errorf("malformed nevra %q: no version", s)
	}
	name, ev := nev[:verIdx], nev[verIdx+1:]

	epoch := "0"
	version := ev
	if colon := strings.Index(ev, ":"); colon >= 0 {
		epoch, version = ev[:colon], ev[colon+1:]
		if epoch == "" || version == "" {
			return NEVRA{}, fmt.Errorf("malformed nevra %q: bad epoch separator", s)
		}
	}

	return NEVRA{
		Name:    name,
		Epoch:   epoch,
		Version: version,
		Release: release,
		Arch:    arch,
	}, nil
}
