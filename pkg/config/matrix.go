package config

import "fmt"

// testingSuffix marks the updates-testing variant of a stable release.
const testingSuffix = "-testing"

// Partition is one independently analyzed (release, architecture) unit.
// Stable releases contribute two partitions per architecture: the stable
// repo set and an updates-testing variant whose checked set is the
// testing repos only.
type Partition struct {
	// Release is the partition label, e.g. "rawhide", "42", "42-testing".
	Release string `json:"release"`

	// Arch is the primary architecture analyzed in this partition.
	Arch string `json:"arch"`

	// MultiArch lists compatible sub-architectures included alongside
	// Arch when querying repository contents.
	MultiArch []string `json:"multiarch,omitempty"`

	// Repos is the full repository set visible to the resolver.
	Repos []string `json:"repos"`

	// Check is the subset of repositories whose packages are checked
	// for broken dependencies. For testing partitions only the testing
	// repos are checked, but the stable repos stay visible as providers.
	Check []string `json:"check"`

	// ReleaseVer is the distribution release version passed to the
	// repository query tool ("rawhide" partitions use the bare name).
	ReleaseVer string `json:"releasever"`
}

// Key identifies the partition in snapshots and on the query API.
func (p Partition) Key() string {
	return p.Release + "/" + p.Arch
}

// Matrix derives the partition list from the configuration. Each
// configured release expands to one partition per architecture, with
// stable releases additionally producing an updates-testing variant.
func (c *Config) Matrix() ([]Partition, error) {
	multiArch := make(map[string][]string, len(c.Arches))
	for _, arch := range c.Arches {
		multiArch[arch.Name] = arch.MultiArch
	}

	var matrix []Partition
	for _, rel := range c.Releases {
		variants, err := c.repoVariants(rel)
		if err != nil {
			return nil, err
		}

		for _, arch := range rel.Arches {
			for _, v := range variants {
				matrix = append(matrix, Partition{
					Release:    rel.Name + v.suffix,
					Arch:       arch,
					MultiArch:  multiArch[arch],
					Repos:      v.repos,
					Check:      v.check,
					ReleaseVer: rel.Name,
				})
			}
		}
	}

	return matrix, nil
}

type repoVariant struct {
	suffix string
	repos  []string
	check  []string
}

func (c *Config) repoVariants(rel ReleaseConfig) ([]repoVariant, error) {
	switch rel.Type {
	case ReleaseRawhide:
		if len(c.Repos.Rawhide) == 0 {
			return nil, fmt.Errorf("config: release %q needs rawhide repos", rel.Name)
		}
		return []repoVariant{{repos: c.Repos.Rawhide, check: c.Repos.Rawhide}}, nil

	case ReleasePrerelease:
		if len(c.Repos.Stable) == 0 {
			return nil, fmt.Errorf("config: release %q needs stable repos", rel.Name)
		}
		return []repoVariant{{repos: c.Repos.Stable, check: c.Repos.Stable}}, nil

	case ReleaseStable:
		if len(c.Repos.Stable) == 0 {
			return nil, fmt.Errorf("config: release %q needs stable repos", rel.Name)
		}
		stable := concat(c.Repos.Stable, c.Repos.Updates)
		variants := []repoVariant{{repos: stable, check: stable}}
		if len(c.Repos.Testing) > 0 {
			variants = append(variants, repoVariant{
				suffix: testingSuffix,
				repos:  concat(stable, c.Repos.Testing),
				check:  c.Repos.Testing,
			})
		}
		return variants, nil
	}

	return nil, fmt.Errorf("config: release %q has unknown type %q", rel.Name, rel.Type)
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
