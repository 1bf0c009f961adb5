package repoquery

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/depscope/depscope/pkg/rpm"
)

type section int

const (
	sectionNone section = iota
	sectionProvides
	sectionRequires
)

// parseOutput converts repoquery block output into packages. A package
// whose block contains any malformed line is dropped; skipped reports
// how many were dropped.
func parseOutput(out []byte) ([]rpm.Package, int) {
	var (
		pkgs    []rpm.Package
		current *rpm.Package
		sec     section
		bad     bool
		skipped int
	)

	flush := func() {
		if current == nil {
			return
		}
		if bad {
			skipped++
		} else {
			pkgs = append(pkgs, *current)
		}
		current, sec, bad = nil, sectionNone, false
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "pkg:"):
			flush()
			pkg, err := parseIdentity(strings.TrimPrefix(line, "pkg:"))
			if err != nil {
				current, bad = &rpm.Package{}, true
				continue
			}
			current = pkg

		case strings.HasPrefix(line, "provides:"):
			sec = sectionProvides
			addCapability(current, sec, strings.TrimPrefix(line, "provides:"), &bad)

		case strings.HasPrefix(line, "requires:"):
			sec = sectionRequires
			addCapability(current, sec, strings.TrimPrefix(line, "requires:"), &bad)

		default:
			addCapability(current, sec, line, &bad)
		}
	}
	flush()

	return pkgs, skipped
}

// parseIdentity parses the unit-separated identity line:
// name, epoch, version, release, arch, source name, repo name.
func parseIdentity(s string) (*rpm.Package, error) {
	fields := strings.Split(s, "\x1f")
	if len(fields) != 7 {
		return nil, fmt.Errorf("expected 7 identity fields, got %d", len(fields))
	}
	for _, f := range fields[:5] {
		if f == "" {
			return nil, fmt.Errorf("empty identity field in %q", s)
		}
	}
	nevra := rpm.NEVRA{
		Name:    fields[0],
		Epoch:   fields[1],
		Version: fields[2],
		Release: fields[3],
		Arch:    fields[4],
	}
	return &rpm.Package{
		Name:       nevra.Name,
		EVR:        nevra.EVR(),
		Arch:       nevra.Arch,
		SourceName: fields[5],
		Repo:       fields[6],
	}, nil
}

func addCapability(pkg *rpm.Package, sec section, s string, bad *bool) {
	s = strings.TrimSpace(s)
	if pkg == nil || s == "" {
		return
	}

	switch sec {
	case sectionProvides:
		c, err := rpm.ParseCapability(s)
		if err != nil {
			*bad = true
			return
		}
		pkg.Provides = append(pkg.Provides, c)

	case sectionRequires:
		req, err := rpm.ParseRequirement(s, pkg.IsSource())
		if err != nil {
			*bad = true
			return
		}
		pkg.Requires = append(pkg.Requires, req)

	default:
		// Capability line outside any section: the block is malformed.
		*bad = true
	}
}
