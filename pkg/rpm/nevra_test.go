package rpm

import "testing"

func TestParseNEVRA(t *testing.T) {
	tests := []struct {
		input string
		want  NEVRA
	}{
		{
			input: "bash-5.2.26-3.fc40.x86_64",
			want:  NEVRA{Name: "bash", Epoch: "0", Version: "5.2.26", Release: "3.fc40", Arch: "x86_64"},
		},
		{
			input: "dnf-2:4.19.0-1.fc40.noarch",
			want:  NEVRA{Name: "dnf", Epoch: "2", Version: "4.19.0", Release: "1.fc40", Arch: "noarch"},
		},
		{
			input: "gcc-c++-14.0.1-0.15.fc40.aarch64",
			want:  NEVRA{Name: "gcc-c++", Epoch: "0", Version: "14.0.1", Release: "0.15.fc40", Arch: "aarch64"},
		},
		{
			input: "kernel-srpm-macros-1.0-23.fc40.src",
			want:  NEVRA{Name: "kernel-srpm-macros", Epoch: "0", Version: "1.0", Release: "23.fc40", Arch: "src"},
		},
	}

	for _, tt := range tests {
		got, err := parseNEVRA(tt.input)
		if err != nil {
			t.Errorf("parseNEVRA(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseNEVRA(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestParseNEVRA_Malformed(t *testing.T) {
	for _, input := range []string{"", "bash", "bash.x86_64", "bash-5.2.x86_64", "-1.0-1.noarch"} {
		if _, err := parseNEVRA(input); err == nil {
			t.Errorf("parseNEVRA(%q) expected error", input)
		}
	}
}

func TestNEVRA_EVR(t *testing.T) {
	n := NEVRA{Name: "dnf", Epoch: "2", Version: "4.19.0", Release: "1.fc40", Arch: "noarch"}
	if got := n.EVR(); got != "2:4.19.0-1.fc40" {
		t.Errorf("EVR() = %q", got)
	}
	if got := n.String(); got != "dnf-2:4.19.0-1.fc40.noarch" {
		t.Errorf("String() = %q", got)
	}

	// Missing epoch defaults to 0.
	n.Epoch = ""
	if got := n.EVR(); got != "0:4.19.0-1.fc40" {
		t.Errorf("EVR() without epoch = %q", got)
	}
}
