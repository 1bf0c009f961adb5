package config

import (
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
[depscope]
interval = 24
maintainer_interval = 12
cycle_timeout = 6
workers = 2
listen = "127.0.0.1:3030"

[storage]
backend = "file"

[maintainers]
poc_url = "https://example.org/poc.json"
list_url = "https://example.org/maintainers.json"

[repos]
stable = ["fedora"]
updates = ["updates"]
testing = ["updates-testing"]
rawhide = ["rawhide"]

[[arch]]
name = "x86_64"
multiarch = ["i686"]

[[arch]]
name = "aarch64"
multiarch = []

[[release]]
name = "rawhide"
type = "rawhide"
arches = ["x86_64", "aarch64"]

[[release]]
name = "42"
type = "stable"
arches = ["x86_64"]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := cfg.Service.Interval(); got != 24*time.Hour {
		t.Errorf("Interval() = %v", got)
	}
	if got := cfg.Service.MaintainerInterval(); got != 12*time.Hour {
		t.Errorf("MaintainerInterval() = %v", got)
	}
	if cfg.Service.Workers != 2 {
		t.Errorf("Workers = %d", cfg.Service.Workers)
	}
	if len(cfg.Releases) != 2 || cfg.Releases[1].Type != ReleaseStable {
		t.Errorf("releases = %+v", cfg.Releases)
	}
}

func TestParse_Defaults(t *testing.T) {
	minimal := `
[depscope]
interval = 24
maintainer_interval = 12

[repos]
rawhide = ["rawhide"]

[[arch]]
name = "x86_64"

[[release]]
name = "rawhide"
type = "rawhide"
arches = ["x86_64"]
`
	cfg, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Service.Workers != 4 {
		t.Errorf("default workers = %d", cfg.Service.Workers)
	}
	if cfg.Service.Listen == "" || cfg.Storage.Backend != "file" {
		t.Errorf("defaults not applied: %+v", cfg.Service)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			name:    "unknown arch reference",
			mangle:  func(s string) string { return strings.Replace(s, `arches = ["x86_64"]`, `arches = ["s390x"]`, 1) },
			wantErr: "unknown architecture",
		},
		{
			name:    "unknown release type",
			mangle:  func(s string) string { return strings.Replace(s, `type = "stable"`, `type = "beta"`, 1) },
			wantErr: "unknown type",
		},
		{
			name:    "zero interval",
			mangle:  func(s string) string { return strings.Replace(s, "interval = 24", "interval = 0", 1) },
			wantErr: "interval must be positive",
		},
		{
			name:    "unknown storage backend",
			mangle:  func(s string) string { return strings.Replace(s, `backend = "file"`, `backend = "mongo"`, 1) },
			wantErr: "storage backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mangle(sampleConfig)))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestMatrix(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	matrix, err := cfg.Matrix()
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}

	// rawhide x 2 arches + stable 42 x 1 arch x 2 variants.
	if len(matrix) != 4 {
		t.Fatalf("len(matrix) = %d, want 4", len(matrix))
	}

	keys := make(map[string]Partition, len(matrix))
	for _, p := range matrix {
		keys[p.Key()] = p
	}

	if _, ok := keys["rawhide/aarch64"]; !ok {
		t.Error("missing rawhide/aarch64 partition")
	}

	testing42, ok := keys["42-testing/x86_64"]
	if !ok {
		t.Fatal("missing 42-testing/x86_64 partition")
	}
	if len(testing42.Check) != 1 || testing42.Check[0] != "updates-testing" {
		t.Errorf("testing check set = %v", testing42.Check)
	}
	if len(testing42.Repos) != 3 {
		t.Errorf("testing repos = %v", testing42.Repos)
	}
	if testing42.ReleaseVer != "42" {
		t.Errorf("releasever = %q", testing42.ReleaseVer)
	}

	stable42 := keys["42/x86_64"]
	if len(stable42.MultiArch) != 1 || stable42.MultiArch[0] != "i686" {
		t.Errorf("multiarch = %v", stable42.MultiArch)
	}
}

func TestReleaseNames_IncludesTestingVariant(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	names := cfg.ReleaseNames()
	want := map[string]bool{"rawhide": true, "42": true, "42-testing": true}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected name %q", n)
		}
	}
}
