// Package upgrade decides the new version requirement of each dependency
// and applies the decisions to manifests.
package upgrade

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// Op is the comparison operator that prefixes a requirement.
type Op string

const (
	OpBare      Op = ""
	OpCaret     Op = "^"
	OpTilde     Op = "~"
	OpExact     Op = "="
	OpGreaterEq Op = ">="
	OpGreater   Op = ">"
	OpLessEq    Op = "<="
	OpLess      Op = "<"
)

// two-character operators come first so ">=" is not read as ">".
var operators = []Op{OpGreaterEq, OpLessEq, OpCaret, OpTilde, OpExact, OpGreater, OpLess}

// Requirement is a single-comparator version requirement such as "1.2",
// "^0.3.1" or ">= 2".
type Requirement struct {
	Op Op
	// Space is the whitespace between the operator and the version.
	Space string
	// Raw is the version component as written, e.g. "1.2".
	Raw string
	// Version is Raw with missing minor and patch components filled with zeros.
	Version semver.Version
}

// ParseRequirement parses a requirement string. Requirements with more than
// one comparator or with wildcards are rejected, since rewriting them would
// change their meaning.
func ParseRequirement(s string) (Requirement, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}
	if strings.Contains(trimmed, ",") {
		return Requirement{}, fmt.Errorf("requirement %q has more than one comparator", s)
	}
	if hasWildcard(trimmed) {
		return Requirement{}, fmt.Errorf("requirement %q uses a wildcard", s)
	}

	var r Requirement
	rest := trimmed
	for _, op := range operators {
		if strings.HasPrefix(rest, string(op)) {
			r.Op = op
			rest = rest[len(op):]
			break
		}
	}
	body := strings.TrimLeft(rest, " \t")
	r.Space = rest[:len(rest)-len(body)]
	r.Raw = body

	v, err := parseVersion(body)
	if err != nil {
		return Requirement{}, fmt.Errorf("requirement %q: %w", s, err)
	}
	r.Version = v
	return r, nil
}

// String renders the requirement as it was written.
func (r Requirement) String() string {
	return string(r.Op) + r.Space + r.Raw
}

// WithVersion returns the requirement rewritten to v, keeping its operator
// and spacing.
func (r Requirement) WithVersion(v semver.Version) Requirement {
	v.Build = nil
	r.Raw = v.String()
	r.Version = v
	return r
}

func hasWildcard(s string) bool {
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	for _, part := range strings.Split(s, ".") {
		switch strings.TrimLeft(part, "^~=<> \t") {
		case "*", "x", "X":
			return true
		}
	}
	return false
}

// parseVersion parses a full or partial version. Partial versions ("1",
// "1.2") are padded; a prerelease is only accepted on a full version.
func parseVersion(s string) (semver.Version, error) {
	if s == "" {
		return semver.Version{}, fmt.Errorf("missing version")
	}
	if strings.HasPrefix(s, "v") {
		return semver.Version{}, fmt.Errorf("invalid version %q", s)
	}
	if v, err := semver.Parse(s); err == nil {
		return v, nil
	}
	if strings.ContainsAny(s, "-+") || strings.Count(s, ".") > 2 {
		return semver.Version{}, fmt.Errorf("invalid version %q", s)
	}
	v, err := semver.ParseTolerant(s)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid version %q", s)
	}
	return v, nil
}
