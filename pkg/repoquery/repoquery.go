// Package repoquery obtains the full package set of one repository
// partition by driving the system package manager. Callers depend on
// the [Service] interface only; the dnf-backed implementation is an
// external collaborator with a testable seam.
package repoquery

import (
	"context"
	"errors"

	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/rpm"
)

// ErrFetch indicates that the repository metadata for a partition could
// not be obtained. It is non-fatal: the partition falls back to its
// previous snapshot contribution.
var ErrFetch = errors.New("repository fetch failed")

// Service returns the packages of one (release, architecture)
// partition, with their declared requirements and provided capabilities.
type Service interface {
	Fetch(ctx context.Context, part config.Partition) ([]rpm.Package, error)
}

// Static is a fixed service for tests and offline runs.
type Static struct {
	Packages map[string][]rpm.Package
	Err      error
}

func (s Static) Fetch(ctx context.Context, part config.Partition) ([]rpm.Package, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Packages[part.Key()], nil
}

var _ Service = Static{}
