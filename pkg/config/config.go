// Package config loads and validates the depscope TOML configuration.
//
// The configuration names the tracked releases (with lifecycle type and
// architectures), the repository sets per lifecycle type, refresh
// intervals, and server/storage settings. Loading is strict: unknown
// architecture references, empty release lists, and non-positive
// intervals are reported as errors so the service never runs with a
// half-valid setup.
//
// The file is re-read at the start of every refresh cycle, so changes to
// the release and architecture lists take effect without a restart.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "depscope.toml"

// ReleaseType is the lifecycle state of a release.
type ReleaseType string

// Recognized release lifecycle states.
const (
	ReleaseRawhide    ReleaseType = "rawhide"
	ReleasePrerelease ReleaseType = "prerelease"
	ReleaseStable     ReleaseType = "stable"
)

// Config is the root of the depscope TOML file.
type Config struct {
	Service     ServiceConfig     `toml:"depscope"`
	Storage     StorageConfig     `toml:"storage"`
	Maintainers MaintainersConfig `toml:"maintainers"`
	Repos       RepoConfig        `toml:"repos"`
	Arches      []ArchConfig      `toml:"arch"`
	Releases    []ReleaseConfig   `toml:"release"`
}

// ServiceConfig holds scheduling and server settings.
type ServiceConfig struct {
	// IntervalHours is the dependency refresh interval.
	IntervalHours float64 `toml:"interval"`

	// MaintainerIntervalHours is the maintainer directory refresh
	// interval, independent of the dependency refresh.
	MaintainerIntervalHours float64 `toml:"maintainer_interval"`

	// CycleTimeoutHours bounds one full refresh cycle. Zero disables
	// the timeout.
	CycleTimeoutHours float64 `toml:"cycle_timeout"`

	// Workers limits how many partitions are processed concurrently.
	Workers int `toml:"workers"`

	// Listen is the query server bind address.
	Listen string `toml:"listen"`

	// DataDir is where per-partition results are materialized when the
	// file storage backend is active.
	DataDir string `toml:"data_dir"`
}

// Interval returns the dependency refresh interval as a duration.
func (s ServiceConfig) Interval() time.Duration {
	return time.Duration(s.IntervalHours * float64(time.Hour))
}

// MaintainerInterval returns the maintainer refresh interval as a duration.
func (s ServiceConfig) MaintainerInterval() time.Duration {
	return time.Duration(s.MaintainerIntervalHours * float64(time.Hour))
}

// CycleTimeout returns the per-cycle budget, or zero when disabled.
func (s ServiceConfig) CycleTimeout() time.Duration {
	return time.Duration(s.CycleTimeoutHours * float64(time.Hour))
}

// StorageConfig selects the snapshot materialization backend.
type StorageConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// RedisAddr is the redis host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`
}

// MaintainersConfig points at the maintainer directory documents.
type MaintainersConfig struct {
	// PocURL serves the package to point-of-contact JSON map.
	PocURL string `toml:"poc_url"`

	// ListURL serves the package to maintainer-list JSON map.
	ListURL string `toml:"list_url"`

	// TimeoutSeconds bounds each directory fetch.
	TimeoutSeconds int `toml:"timeout"`
}

// Timeout returns the directory fetch timeout.
func (m MaintainersConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// RepoConfig lists repository identifiers per lifecycle role.
type RepoConfig struct {
	Stable  []string `toml:"stable"`
	Updates []string `toml:"updates"`
	Testing []string `toml:"testing"`
	Rawhide []string `toml:"rawhide"`
}

// ArchConfig describes one processor architecture.
type ArchConfig struct {
	Name string `toml:"name"`

	// MultiArch lists compatible sub-architectures whose packages are
	// installable on this architecture (e.g. i686 on x86_64).
	MultiArch []string `toml:"multiarch"`
}

// ReleaseConfig describes one tracked release.
type ReleaseConfig struct {
	Name   string      `toml:"name"`
	Type   ReleaseType `toml:"type"`
	Arches []string    `toml:"arches"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw TOML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Workers <= 0 {
		c.Service.Workers = 4
	}
	if c.Service.Listen == "" {
		c.Service.Listen = "127.0.0.1:3030"
	}
	if c.Service.DataDir == "" {
		c.Service.DataDir = "data"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Maintainers.PocURL == "" {
		c.Maintainers.PocURL = "https://src.fedoraproject.org/extras/pagure_poc.json"
	}
	if c.Maintainers.ListURL == "" {
		c.Maintainers.ListURL = "https://src.fedoraproject.org/extras/pagure_bz.json"
	}
}

func (c *Config) validate() error {
	if c.Service.IntervalHours <= 0 {
		return fmt.Errorf("config: refresh interval must be positive")
	}
	if c.Service.MaintainerIntervalHours <= 0 {
		return fmt.Errorf("config: maintainer refresh interval must be positive")
	}
	if len(c.Releases) == 0 {
		return fmt.Errorf("config: no releases configured")
	}
	if len(c.Arches) == 0 {
		return fmt.Errorf("config: no architectures configured")
	}

	switch c.Storage.Backend {
	case "", "file", "redis", "none":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}

	arches := make(map[string]bool, len(c.Arches))
	for _, arch := range c.Arches {
		if arch.Name == "" {
			return fmt.Errorf("config: architecture with empty name")
		}
		if arches[arch.Name] {
			return fmt.Errorf("config: duplicate architecture %q", arch.Name)
		}
		arches[arch.Name] = true
	}

	releases := make(map[string]bool, len(c.Releases))
	for _, rel := range c.Releases {
		if rel.Name == "" {
			return fmt.Errorf("config: release with empty name")
		}
		if releases[rel.Name] {
			return fmt.Errorf("config: duplicate release %q", rel.Name)
		}
		releases[rel.Name] = true

		switch rel.Type {
		case ReleaseRawhide, ReleasePrerelease, ReleaseStable:
		default:
			return fmt.Errorf("config: release %q has unknown type %q", rel.Name, rel.Type)
		}

		if len(rel.Arches) == 0 {
			return fmt.Errorf("config: release %q has no architectures", rel.Name)
		}
		for _, arch := range rel.Arches {
			if !arches[arch] {
				return fmt.Errorf("config: release %q references unknown architecture %q", rel.Name, arch)
			}
		}
	}

	return nil
}

// ReleaseNames returns the configured release names, including the
// -testing variants derived for stable releases. Override rules are
// validated against this set.
func (c *Config) ReleaseNames() []string {
	var names []string
	for _, rel := range c.Releases {
		names = append(names, rel.Name)
		if rel.Type == ReleaseStable {
			names = append(names, rel.Name+testingSuffix)
		}
	}
	return names
}

// ArchNames returns the configured architecture names.
func (c *Config) ArchNames() []string {
	names := make([]string, 0, len(c.Arches))
	for _, arch := range c.Arches {
		names = append(names, arch.Name)
	}
	return names
}
