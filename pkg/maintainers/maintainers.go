// Package maintainers resolves the people responsible for a source
// package. The directory is refreshed on its own interval, independent
// of the dependency refresh, and lookups never block on a refresh.
package maintainers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/depscope/depscope/pkg/httputil"
)

// UnknownAdmin is reported for packages without a known point of
// contact.
const UnknownAdmin = "(N/A)"

// Directory answers maintainer lookups for source package names.
// Lookups are best-effort: a missing entry is not an error.
type Directory interface {
	// Admin returns the primary point of contact for a source package.
	Admin(pkg string) (string, bool)

	// Maintainers returns everyone listed for a source package.
	Maintainers(pkg string) []string

	// Refresh replaces the directory contents from the upstream source.
	Refresh(ctx context.Context) error
}

// directoryData is the immutable result of one refresh.
type directoryData struct {
	admins      map[string]string
	maintainers map[string][]string
}

// HTTPDirectory fetches the point-of-contact and maintainer-list
// documents from a dist-git instance. Data is held atomically so
// lookups race-free overlap with refreshes.
type HTTPDirectory struct {
	client  *httputil.Client
	pocURL  string
	listURL string

	data atomic.Pointer[directoryData]
}

// NewHTTPDirectory creates a directory backed by the two JSON documents
// at pocURL and listURL. The directory is empty until the first Refresh.
func NewHTTPDirectory(pocURL, listURL string, timeout time.Duration) *HTTPDirectory {
	d := &HTTPDirectory{
		client:  httputil.NewClient(timeout, nil),
		pocURL:  pocURL,
		listURL: listURL,
	}
	d.data.Store(&directoryData{
		admins:      map[string]string{},
		maintainers: map[string][]string{},
	})
	return d
}

// pocPage is the shape of the point-of-contact document. Only the rpms
// section is used.
type pocPage struct {
	RPMs map[string]struct {
		Admin string `json:"admin"`
	} `json:"rpms"`
}

// listPage is the shape of the maintainer-list document.
type listPage struct {
	RPMs map[string][]string `json:"rpms"`
}

// Refresh fetches both documents and atomically replaces the directory
// contents. On error the previous contents stay in place.
func (d *HTTPDirectory) Refresh(ctx context.Context) error {
	var poc pocPage
	err := httputil.RetryWithBackoff(ctx, func() error {
		return d.client.GetJSON(ctx, d.pocURL, &poc)
	})
	if err != nil {
		return err
	}

	var list listPage
	err = httputil.RetryWithBackoff(ctx, func() error {
		return d.client.GetJSON(ctx, d.listURL, &list)
	})
	if err != nil {
		return err
	}

	admins := make(map[string]string, len(poc.RPMs))
	for pkg, users := range poc.RPMs {
		admins[pkg] = users.Admin
	}

	d.data.Store(&directoryData{admins: admins, maintainers: list.RPMs})
	return nil
}

// Admin returns the point of contact for pkg.
func (d *HTTPDirectory) Admin(pkg string) (string, bool) {
	admin, ok := d.data.Load().admins[pkg]
	return admin, ok
}

// Maintainers returns the maintainer list for pkg, or nil if unknown.
func (d *HTTPDirectory) Maintainers(pkg string) []string {
	return d.data.Load().maintainers[pkg]
}

var _ Directory = (*HTTPDirectory)(nil)

// Static is a fixed directory for tests and one-shot runs without
// network access.
type Static struct {
	Admins map[string]string
	Lists  map[string][]string
}

func (s Static) Admin(pkg string) (string, bool) {
	admin, ok := s.Admins[pkg]
	return admin, ok
}

func (s Static) Maintainers(pkg string) []string { return s.Lists[pkg] }

func (s Static) Refresh(ctx context.Context) error { return nil }

var _ Directory = Static{}
