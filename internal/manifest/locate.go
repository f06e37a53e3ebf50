package manifest

import (
	"github.com/wexinc/cargo-upgrade/internal/tomledit"
)

// DepKind is the kind of dependency table an entry lives in.
type DepKind int

const (
	Normal DepKind = iota
	Development
	Build
)

// String returns the canonical table name for the kind.
func (k DepKind) String() string {
	switch k {
	case Development:
		return "dev-dependencies"
	case Build:
		return "build-dependencies"
	default:
		return "dependencies"
	}
}

// tableNames lists the accepted spellings of each kind, canonical first.
var tableNames = map[DepKind][]string{
	Normal:      {"dependencies"},
	Development: {"dev-dependencies", "dev_dependencies"},
	Build:       {"build-dependencies", "build_dependencies"},
}

func kindOf(table string) (DepKind, bool) {
	for _, k := range []DepKind{Normal, Development, Build} {
		for _, n := range tableNames[k] {
			if n == table {
				return k, true
			}
		}
	}
	return 0, false
}

// Section identifies the table a dependency is declared in.
type Section struct {
	Kind DepKind
	// Target is the platform cfg of a [target.<cfg>.*dependencies] table,
	// empty for the top-level tables.
	Target string
	// Table is the document path of the table as spelled in the manifest.
	Table []string
}

// String renders the section as a dotted table name.
func (s Section) String() string {
	if s.Target == "" {
		return s.Kind.String()
	}
	return "target." + s.Target + "." + s.Kind.String()
}

// Shape is how a dependency is written.
type Shape int

const (
	// ShapeString is `name = "1.0"`.
	ShapeString Shape = iota
	// ShapeInline is `name = { version = "1.0", ... }`.
	ShapeInline
	// ShapeTable is a [dependencies.name] table, or dotted keys such as
	// `name.version = "1.0"`.
	ShapeTable
)

// String returns a short name for the shape.
func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeInline:
		return "inline table"
	case ShapeTable:
		return "table"
	default:
		return "unknown"
	}
}

// Dependency is one dependency declaration.
type Dependency struct {
	// Name is the key the dependency is declared under.
	Name    string
	Section Section
	Shape   Shape

	// Version is the declared requirement; HasVersion is false for
	// path-only, git-only and workspace-inherited dependencies.
	Version    string
	HasVersion bool

	// Package is the real crate name when the dependency is renamed.
	Package         string
	Optional        bool
	Features        []string
	DefaultFeatures *bool
	Path            string
	Git             string
	Registry        string
	Workspace       bool
}

// CrateName returns the name the dependency is published under.
func (d Dependency) CrateName() string {
	if d.Package != "" {
		return d.Package
	}
	return d.Name
}

// VersionPath returns the document path of the dependency's version value.
func (d Dependency) VersionPath() []string {
	path := make([]string, 0, len(d.Section.Table)+2)
	path = append(path, d.Section.Table...)
	path = append(path, d.Name)
	if d.Shape != ShapeString {
		path = append(path, "version")
	}
	return path
}

// Filter restricts Locate to a set of dependency names. The zero Filter
// matches everything.
type Filter struct {
	names []string
	set   map[string]struct{}
}

// NewFilter returns a filter matching the given names.
func NewFilter(names ...string) Filter {
	f := Filter{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if _, dup := f.set[n]; dup {
			continue
		}
		f.set[n] = struct{}{}
		f.names = append(f.names, n)
	}
	return f
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool { return len(f.names) == 0 }

// Names returns the filtered names in the order given.
func (f Filter) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Match reports whether name passes the filter.
func (f Filter) Match(name string) bool {
	if f.Empty() {
		return true
	}
	_, ok := f.set[name]
	return ok
}

// Locate returns the dependency declarations of m that pass filter, in
// this order: [dependencies], [dev-dependencies], [build-dependencies]
// (each in declaration order), then every [target.<cfg>.*dependencies]
// table in document order.
func Locate(m *Manifest, filter Filter) []Dependency {
	var deps []Dependency
	for _, k := range []DepKind{Normal, Development, Build} {
		for _, name := range tableNames[k] {
			t, ok := m.Doc.Table(name)
			if !ok {
				continue
			}
			deps = appendTable(deps, t, Section{Kind: k, Table: t.Path()}, filter)
		}
	}
	for _, t := range m.Doc.Tables() {
		path := t.Path()
		if len(path) != 3 || path[0] != "target" {
			continue
		}
		k, ok := kindOf(path[2])
		if !ok {
			continue
		}
		deps = appendTable(deps, t, Section{Kind: k, Target: path[1], Table: path}, filter)
	}
	return deps
}

// Missing returns the names of filter that none of deps carries.
func Missing(filter Filter, deps []Dependency) []string {
	seen := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		seen[d.Name] = struct{}{}
	}
	var missing []string
	for _, n := range filter.names {
		if _, ok := seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

func appendTable(deps []Dependency, t *tomledit.Table, sec Section, filter Filter) []Dependency {
	for _, name := range t.Keys() {
		if !filter.Match(name) {
			continue
		}
		if d, ok := readDependency(t, name, sec); ok {
			deps = append(deps, d)
		}
	}
	return deps
}

func readDependency(t *tomledit.Table, name string, sec Section) (Dependency, bool) {
	d := Dependency{Name: name, Section: sec}

	if v, ok := t.Get(name); ok && v.Kind() == tomledit.KindString {
		d.Shape = ShapeString
		d.Version, d.HasVersion = v.AsString()
		return d, true
	}
	sub, ok := t.Table(name)
	if !ok {
		return d, false
	}
	switch sub.Kind() {
	case tomledit.TableInline:
		d.Shape = ShapeInline
	case tomledit.TableHeader, tomledit.TableDotted, tomledit.TableImplicit:
		d.Shape = ShapeTable
	default:
		return d, false
	}

	d.Version, d.HasVersion = stringField(sub, "version")
	d.Package, _ = stringField(sub, "package")
	d.Path, _ = stringField(sub, "path")
	d.Git, _ = stringField(sub, "git")
	d.Registry, _ = stringField(sub, "registry")
	d.Optional, _ = boolField(sub, "optional")
	d.Workspace, _ = boolField(sub, "workspace")
	for _, key := range []string{"default-features", "default_features"} {
		if b, ok := boolField(sub, key); ok {
			d.DefaultFeatures = &b
			break
		}
	}
	if v, ok := sub.Get("features"); ok {
		d.Features, _ = v.Strings()
	}
	return d, true
}

func stringField(t *tomledit.Table, key string) (string, bool) {
	v, ok := t.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func boolField(t *tomledit.Table, key string) (bool, bool) {
	v, ok := t.Get(key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}
