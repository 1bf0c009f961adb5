package repoquery

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/rpm"
)

// Runner executes an external command and returns its stdout. The seam
// exists so tests can feed canned output instead of spawning dnf.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs the command for real.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}

// queryFormat emits one block per package: an identity line with
// unit-separated fields, then the provided and required capability
// lists. List tags expand newline-joined, so the parser treats plain
// lines as continuations of the current section.
const queryFormat = "pkg:%{name}\x1f%{epoch}\x1f%{version}\x1f%{release}\x1f%{arch}\x1f%{source_name}\x1f%{reponame}\nprovides:%{provides}\nrequires:%{requires}\n"

// DNFService fetches partition contents with dnf makecache + repoquery,
// using a per-partition installroot so partitions never share metadata
// caches.
type DNFService struct {
	run      Runner
	cacheDir string
	logger   *log.Logger
}

// NewDNFService creates a dnf-backed service keeping metadata caches
// under cacheDir. A nil logger falls back to the default logger.
func NewDNFService(cacheDir string, logger *log.Logger) *DNFService {
	if logger == nil {
		logger = log.Default()
	}
	return &DNFService{run: execRunner, cacheDir: cacheDir, logger: logger}
}

// NewDNFServiceWithRunner is NewDNFService with an explicit command
// runner, for tests.
func NewDNFServiceWithRunner(cacheDir string, logger *log.Logger, run Runner) *DNFService {
	s := NewDNFService(cacheDir, logger)
	s.run = run
	return s
}

// Fetch refreshes the partition's metadata cache and returns its full
// package set. Individual malformed records are skipped and logged;
// only a failing dnf invocation is an error.
func (s *DNFService) Fetch(ctx context.Context, part config.Partition) ([]rpm.Package, error) {
	root := filepath.Join(s.cacheDir, part.Release, part.Arch)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	common := []string{
		"--quiet",
		"--installroot", root,
		"--releasever", part.ReleaseVer,
		"--forcearch", part.Arch,
	}
	for _, repo := range part.Repos {
		common = append(common, "--repo", repo)
	}

	makecache := append(append([]string(nil), common...), "makecache", "--refresh")
	if _, err := s.run(ctx, "dnf", makecache...); err != nil {
		return nil, fmt.Errorf("%w: dnf makecache for %s: %v", ErrFetch, part.Key(), err)
	}

	query := append(append([]string(nil), common...), "repoquery", "--queryformat", queryFormat)
	for _, arch := range part.MultiArch {
		query = append(query, "--arch", arch)
	}
	out, err := s.run(ctx, "dnf", query...)
	if err != nil {
		return nil, fmt.Errorf("%w: dnf repoquery for %s: %v", ErrFetch, part.Key(), err)
	}

	pkgs, skipped := parseOutput(out)
	if skipped > 0 {
		s.logger.Warn("skipped malformed package records",
			"partition", part.Key(), "skipped", skipped)
	}
	s.logger.Debug("fetched partition contents",
		"partition", part.Key(), "packages", len(pkgs))
	return pkgs, nil
}

var _ Service = (*DNFService)(nil)
