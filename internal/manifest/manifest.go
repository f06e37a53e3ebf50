// Package manifest loads Cargo manifests into editable documents, finds
// the dependency declarations inside them and writes them back.
package manifest

import (
	"errors"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/wexinc/cargo-upgrade/internal/tomledit"
)

// FileName is the name of a Cargo manifest.
const FileName = "Cargo.toml"

// Package is the typed view of a manifest's [package] table.
// Fields that may be inherited from the workspace (version, edition, ...)
// are left out since they can be tables rather than strings.
type Package struct {
	Name string `toml:"name"`
}

// Workspace is the typed view of a manifest's [workspace] table.
type Workspace struct {
	Members        []string `toml:"members"`
	Exclude        []string `toml:"exclude"`
	DefaultMembers []string `toml:"default-members"`
}

type metadata struct {
	Package   *Package   `toml:"package"`
	Workspace *Workspace `toml:"workspace"`
}

// Manifest is a parsed Cargo.toml together with where it lives.
type Manifest struct {
	// Path is the manifest file path.
	Path string
	// Doc is the editable document. Edits made through it are written by Save.
	Doc *tomledit.Document
	// Package is nil when the manifest has no [package] table.
	Package *Package
	// Workspace is nil when the manifest has no [workspace] table.
	Workspace *Workspace

	original string
}

// Parse parses data as the manifest at path. A malformed manifest yields a
// *tomledit.ParseError.
func Parse(path string, data []byte) (*Manifest, error) {
	doc, err := tomledit.Parse(data)
	if err != nil {
		return nil, err
	}
	var meta metadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, decodeError(data, err)
	}
	return &Manifest{
		Path:      path,
		Doc:       doc,
		Package:   meta.Package,
		Workspace: meta.Workspace,
		original:  string(data),
	}, nil
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string { return filepath.Dir(m.Path) }

// Name returns the package name, or "" for a virtual manifest.
func (m *Manifest) Name() string {
	if m.Package == nil {
		return ""
	}
	return m.Package.Name
}

// IsVirtual reports whether the manifest only describes a workspace. Its
// dependencies must never be edited directly.
func (m *Manifest) IsVirtual() bool {
	return m.Package == nil && m.Workspace != nil
}

// Changed reports whether the document differs from the bytes it was
// loaded from.
func (m *Manifest) Changed() bool {
	return m.Doc.String() != m.original
}

// Original returns the bytes the manifest was loaded from.
func (m *Manifest) Original() []byte { return []byte(m.original) }

// decodeError turns a metadata decoding failure into a positioned parse
// error. Structural TOML errors are caught by tomledit first, so this only
// fires for well-formed TOML with an unexpected shape, such as a non-string
// package name.
func decodeError(data []byte, err error) error {
	var de *toml.DecodeError
	if !errors.As(err, &de) {
		return &tomledit.ParseError{Line: 1, Column: 1, Message: err.Error()}
	}
	row, col := de.Position()
	return &tomledit.ParseError{
		Line:     row,
		Column:   col,
		LineText: lineAt(data, row),
		Message:  de.Error(),
	}
}

func lineAt(data []byte, row int) string {
	line := 1
	start := 0
	for i, c := range data {
		if c != '\n' {
			continue
		}
		if line == row {
			return trimCR(string(data[start:i]))
		}
		line++
		start = i + 1
	}
	if line == row {
		return trimCR(string(data[start:]))
	}
	return ""
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
