package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
	"github.com/wexinc/cargo-upgrade/internal/tomledit"
)

// FS is the file access the loader needs.
type FS interface {
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces the contents of name. Implementations must not
	// leave a partially written file behind.
	WriteFile(name string, data []byte) error
}

// OSFS reads and writes the real filesystem.
type OSFS struct{}

// ReadFile reads the named file.
func (OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes data to a temporary file next to name and renames it
// over name, keeping the permissions of an existing file.
func (OSFS) WriteFile(name string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(name); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MemFS is an in-memory FS, safe for concurrent use.
type MemFS struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes []string
}

// NewMemFS returns a MemFS holding files keyed by path.
func NewMemFS(files map[string]string) *MemFS {
	m := &MemFS{files: make(map[string][]byte, len(files))}
	for name, data := range files {
		m.files[filepath.Clean(name)] = []byte(data)
	}
	return m
}

// ReadFile returns the named file or an error wrapping fs.ErrNotExist.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores data under name.
func (m *MemFS) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = filepath.Clean(name)
	m.files[name] = append([]byte(nil), data...)
	m.writes = append(m.writes, name)
	return nil
}

// File returns the contents of name as a string.
func (m *MemFS) File(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.files[filepath.Clean(name)])
}

// Writes returns the paths written so far, in order.
func (m *MemFS) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

// Paths returns every stored path, sorted.
func (m *MemFS) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Loader reads and writes manifests through an FS.
type Loader struct {
	fs FS
}

// NewLoader returns a Loader over fsys, or over the OS filesystem when
// fsys is nil.
func NewLoader(fsys FS) *Loader {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &Loader{fs: fsys}
}

// Load reads and parses the manifest at path.
func (l *Loader) Load(path string) (*Manifest, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, uperrors.ManifestRead(path, err)
	}
	m, err := Parse(path, data)
	if err != nil {
		return nil, uperrors.ManifestParse(path, err)
	}
	return m, nil
}

// Save serializes the manifest and writes it in one step. A virtual
// manifest is refused.
func (l *Loader) Save(m *Manifest) error {
	if m.IsVirtual() {
		return uperrors.VirtualManifest(m.Path)
	}
	data := m.Doc.Bytes()
	if err := l.fs.WriteFile(m.Path, data); err != nil {
		return uperrors.ManifestWrite(m.Path, err)
	}
	m.original = string(data)
	return nil
}

// Load reads the manifest at path from the OS filesystem.
func Load(path string) (*Manifest, error) {
	return NewLoader(nil).Load(path)
}

// Save writes m to the OS filesystem.
func Save(m *Manifest) error {
	return NewLoader(nil).Save(m)
}

// IsParseError reports whether err comes from a malformed manifest.
func IsParseError(err error) bool {
	return errors.Is(err, tomledit.ErrParse)
}
