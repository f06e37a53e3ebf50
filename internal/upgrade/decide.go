package upgrade

import (
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/wexinc/cargo-upgrade/internal/manifest"
	"github.com/wexinc/cargo-upgrade/internal/registry"
)

// Kind is the outcome of an upgrade decision.
type Kind int

const (
	// Upgrade means the requirement should be rewritten to New.
	Upgrade Kind = iota
	// Unchanged means the declared version is already the selected one.
	Unchanged
	// Skipped means the dependency cannot be upgraded; Reason says why.
	Skipped
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Upgrade:
		return "upgrade"
	case Unchanged:
		return "unchanged"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Decision is what should happen to one dependency.
type Decision struct {
	Dependency manifest.Dependency
	Kind       Kind
	// Old is the declared requirement, New the one to write.
	Old string
	New string
	// Version is the selected version. It is zero when Kind is Skipped.
	Version semver.Version
	Reason  string
}

// Reasons reported with skipped decisions.
const (
	ReasonNoVersion    = "no version requirement"
	ReasonNoCandidates = "no matching versions in the registry"
	ReasonNotFound     = "not found in the registry"
	ReasonExcluded     = "excluded"
)

// SelectVersion returns the version a dependency should move to. Stable
// versions are ordered by precedence. Prereleases are only candidates when
// allowPrerelease is set, and only win when greater than every stable
// version.
func SelectVersion(set registry.VersionSet, allowPrerelease bool) (semver.Version, bool) {
	stable, hasStable := set.HighestStable()
	if !allowPrerelease {
		return stable, hasStable
	}
	pre, hasPre := set.HighestPrerelease()
	switch {
	case hasPre && (!hasStable || pre.GT(stable)):
		return pre, true
	default:
		return stable, hasStable
	}
}

// ComputeNewRequirement decides the new requirement of dep given the
// versions published for it.
func ComputeNewRequirement(dep manifest.Dependency, set registry.VersionSet, allowPrerelease bool) Decision {
	d := Decision{Dependency: dep, Old: dep.Version}
	if !dep.HasVersion {
		return skip(d, ReasonNoVersion)
	}

	req, err := ParseRequirement(dep.Version)
	if err != nil {
		return skip(d, err.Error())
	}

	selected, ok := SelectVersion(set, allowPrerelease)
	if !ok {
		return skip(d, ReasonNoCandidates)
	}

	d.Version = selected
	if selected.Equals(req.Version) {
		d.Kind = Unchanged
		d.New = d.Old
		return d
	}

	d.Kind = Upgrade
	d.New = req.WithVersion(selected).String()
	return d
}

func skip(d Decision, reason string) Decision {
	d.Kind = Skipped
	d.Reason = reason
	return d
}

// Apply writes the decided requirement into the manifest document. Only
// the version value changes; the declaration keeps its shape and every
// other field.
func Apply(m *manifest.Manifest, d Decision) error {
	if d.Kind != Upgrade {
		return nil
	}
	dep := d.Dependency
	switch dep.Shape {
	case manifest.ShapeString, manifest.ShapeInline, manifest.ShapeTable:
		if err := m.Doc.SetString(dep.VersionPath(), d.New); err != nil {
			return fmt.Errorf("set %s version in %s: %w", dep.Name, dep.Section, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported declaration shape %s for %s", dep.Shape, dep.Name)
	}
}
