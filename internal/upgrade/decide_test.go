package upgrade

import (
	"strings"
	"testing"

	"github.com/wexinc/cargo-upgrade/internal/manifest"
	"github.com/wexinc/cargo-upgrade/internal/registry"
)

func TestSelectVersion(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		allowPre bool
		want     string
		wantOK   bool
	}{
		{"prerelease disallowed", []string{"1.0.0", "1.1.0-alpha"}, false, "1.0.0", true},
		{"prerelease allowed", []string{"1.0.0", "1.1.0-alpha"}, true, "1.1.0-alpha", true},
		{"prerelease below stable", []string{"1.0.0", "1.0.0-rc.1", "0.9.0-beta"}, true, "1.0.0", true},
		{"only prereleases, disallowed", []string{"0.1.0-alpha"}, false, "", false},
		{"only prereleases, allowed", []string{"0.1.0-alpha", "0.1.0-beta"}, true, "0.1.0-beta", true},
		{"numeric ordering", []string{"0.9.0", "0.10.0", "0.2.0"}, false, "0.10.0", true},
		{"empty", nil, true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectVersion(registry.Versions("x", tt.versions...), tt.allowPre)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("SelectVersion() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeNewRequirement(t *testing.T) {
	set := registry.Versions("docopt", "0.4.0", "0.8.3", "0.9.0-alpha")

	tests := []struct {
		name     string
		dep      manifest.Dependency
		set      registry.VersionSet
		allowPre bool
		kind     Kind
		want     string
		reason   string
	}{
		{
			name: "bare partial version",
			dep:  manifest.Dependency{Name: "docopt", Version: "0.4", HasVersion: true},
			set:  set, kind: Upgrade, want: "0.8.3",
		},
		{
			name: "operator kept",
			dep:  manifest.Dependency{Name: "docopt", Version: ">=0.1.1", HasVersion: true},
			set:  set, kind: Upgrade, want: ">=0.8.3",
		},
		{
			name: "prerelease allowed",
			dep:  manifest.Dependency{Name: "docopt", Version: "^0.4.0", HasVersion: true},
			set:  set, allowPre: true, kind: Upgrade, want: "^0.9.0-alpha",
		},
		{
			name: "already latest",
			dep:  manifest.Dependency{Name: "docopt", Version: "0.8.3", HasVersion: true},
			set:  set, kind: Unchanged, want: "0.8.3",
		},
		{
			name: "already latest with operator",
			dep:  manifest.Dependency{Name: "docopt", Version: "= 0.8.3", HasVersion: true},
			set:  set, kind: Unchanged, want: "= 0.8.3",
		},
		{
			name: "no registry versions",
			dep:  manifest.Dependency{Name: "docopt", Version: "0.4", HasVersion: true},
			set:  registry.Versions("docopt"), kind: Skipped, reason: ReasonNoCandidates,
		},
		{
			name: "path dependency",
			dep:  manifest.Dependency{Name: "local", Path: "../local"},
			set:  set, kind: Skipped, reason: ReasonNoVersion,
		},
		{
			name: "multiple comparators",
			dep:  manifest.Dependency{Name: "docopt", Version: ">=0.4, <0.9", HasVersion: true},
			set:  set, kind: Skipped, reason: "more than one comparator",
		},
		{
			name: "wildcard",
			dep:  manifest.Dependency{Name: "docopt", Version: "0.*", HasVersion: true},
			set:  set, kind: Skipped, reason: "wildcard",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ComputeNewRequirement(tt.dep, tt.set, tt.allowPre)
			if d.Kind != tt.kind {
				t.Fatalf("Kind = %s, want %s (reason %q)", d.Kind, tt.kind, d.Reason)
			}
			if d.Old != tt.dep.Version {
				t.Errorf("Old = %q, want %q", d.Old, tt.dep.Version)
			}
			if tt.kind != Skipped && d.New != tt.want {
				t.Errorf("New = %q, want %q", d.New, tt.want)
			}
			if tt.reason != "" && !strings.Contains(d.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to contain %q", d.Reason, tt.reason)
			}
		})
	}
}

func TestApplyByShape(t *testing.T) {
	src := `[package]
name = "shapes"

[dependencies]
bare = "0.1"  # keep me
inline = { features = ["x"], version = "0.1", optional = true }

[dependencies.table]
path = "../table"
version = '0.1'
default-features = false

[dev-dependencies]
dotted.version = "0.1"
dotted.features = []
`
	want := `[package]
name = "shapes"

[dependencies]
bare = "0.2.0"  # keep me
inline = { features = ["x"], version = "0.2.0", optional = true }

[dependencies.table]
path = "../table"
version = '0.2.0'
default-features = false

[dev-dependencies]
dotted.version = "0.2.0"
dotted.features = []
`
	m, err := manifest.Parse("/shapes/Cargo.toml", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	set := registry.Versions("any", "0.1.0", "0.2.0")
	for _, dep := range manifest.Locate(m, manifest.Filter{}) {
		if err := Apply(m, ComputeNewRequirement(dep, set, false)); err != nil {
			t.Fatalf("Apply(%s) error = %v", dep.Name, err)
		}
	}
	if got := m.Doc.String(); got != want {
		t.Errorf("document mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestApplyIgnoresNonUpgrades(t *testing.T) {
	src := "[package]\nname = \"a\"\n\n[dependencies]\nx = \"1.0.0\"\n"
	m, err := manifest.Parse("/a/Cargo.toml", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	dep := manifest.Locate(m, manifest.Filter{})[0]
	for _, d := range []Decision{
		{Dependency: dep, Kind: Unchanged, Old: "1.0.0", New: "1.0.0"},
		{Dependency: dep, Kind: Skipped, Old: "1.0.0", New: "9.9.9"},
	} {
		if err := Apply(m, d); err != nil {
			t.Fatalf("Apply(%s) error = %v", d.Kind, err)
		}
	}
	if m.Changed() {
		t.Errorf("document changed:\n%s", m.Doc.String())
	}
}
