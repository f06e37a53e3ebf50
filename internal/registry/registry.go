// Package registry looks up the versions published for a crate.
//
// Clients read the crates.io sparse index format: one JSON object per line
// and per published version, stored under a path derived from the crate
// name. The HTTP client talks to a live index, DirClient reads a local copy
// and StaticClient serves a fixed table.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/blang/semver/v4"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
)

// ErrNotFound is matched by errors.Is for crates the registry does not know.
var ErrNotFound = uperrors.ErrNotFound

// Client looks up the published versions of a crate. Lookup returns an
// error matching ErrNotFound when the crate does not exist; any other error
// is a failed lookup.
type Client interface {
	Lookup(ctx context.Context, name string) (VersionSet, error)
}

// Release is one line of a sparse index file.
type Release struct {
	Name    string `json:"name"`
	Version string `json:"vers"`
	Yanked  bool   `json:"yanked"`
}

// VersionSet holds the usable versions of one crate, split into stable and
// prerelease versions, each sorted ascending. Yanked and unparsable versions
// are left out. A VersionSet is never modified after construction.
type VersionSet struct {
	name       string
	stable     []semver.Version
	prerelease []semver.Version
}

// NewVersionSet builds the set for name from index releases.
func NewVersionSet(name string, releases []Release) VersionSet {
	s := VersionSet{name: name}
	for _, r := range releases {
		if r.Yanked {
			continue
		}
		v, err := semver.Parse(r.Version)
		if err != nil {
			continue
		}
		if len(v.Pre) > 0 {
			s.prerelease = append(s.prerelease, v)
		} else {
			s.stable = append(s.stable, v)
		}
	}
	sortVersions(s.stable)
	sortVersions(s.prerelease)
	return s
}

// Versions builds a set from plain version strings, none of them yanked.
func Versions(name string, versions ...string) VersionSet {
	releases := make([]Release, len(versions))
	for i, v := range versions {
		releases[i] = Release{Name: name, Version: v}
	}
	return NewVersionSet(name, releases)
}

// sortVersions orders by precedence; equal precedence keeps input order.
func sortVersions(vs []semver.Version) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].LT(vs[j]) })
}

// Name returns the crate name the set was built for.
func (s VersionSet) Name() string { return s.name }

// Len returns the number of usable versions.
func (s VersionSet) Len() int { return len(s.stable) + len(s.prerelease) }

// Empty reports whether the set has no usable version.
func (s VersionSet) Empty() bool { return s.Len() == 0 }

// Stable returns the stable versions, ascending.
func (s VersionSet) Stable() []semver.Version {
	return append([]semver.Version(nil), s.stable...)
}

// Prerelease returns the prerelease versions, ascending.
func (s VersionSet) Prerelease() []semver.Version {
	return append([]semver.Version(nil), s.prerelease...)
}

// HighestStable returns the greatest stable version.
func (s VersionSet) HighestStable() (semver.Version, bool) {
	if len(s.stable) == 0 {
		return semver.Version{}, false
	}
	return s.stable[len(s.stable)-1], true
}

// HighestPrerelease returns the greatest prerelease version.
func (s VersionSet) HighestPrerelease() (semver.Version, bool) {
	if len(s.prerelease) == 0 {
		return semver.Version{}, false
	}
	return s.prerelease[len(s.prerelease)-1], true
}

// IndexPath returns the sparse index path of a crate's file:
// "1/a", "2/ab", "3/a/abc" and "ab/cd/abcd..." by name length.
func IndexPath(name string) string {
	name = strings.ToLower(name)
	switch len(name) {
	case 0:
		return ""
	case 1:
		return "1/" + name
	case 2:
		return "2/" + name
	case 3:
		return "3/" + name[:1] + "/" + name
	default:
		return name[:2] + "/" + name[2:4] + "/" + name
	}
}

// ParseIndex decodes the lines of a sparse index file.
func ParseIndex(data []byte) ([]Release, error) {
	var releases []Release
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var r Release
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("index line %d: %w", i+1, err)
		}
		releases = append(releases, r)
	}
	return releases, nil
}
