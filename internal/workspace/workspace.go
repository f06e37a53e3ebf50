// Package workspace resolves which manifests an upgrade operates on: a
// single package, or every member of the workspace it belongs to.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
	"github.com/wexinc/cargo-upgrade/internal/logging"
	"github.com/wexinc/cargo-upgrade/internal/manifest"
)

// Mode selects the manifests to operate on.
type Mode int

const (
	// Single operates on the given manifest only.
	Single Mode = iota
	// All operates on every member of the workspace.
	All
)

// String returns the mode name.
func (m Mode) String() string {
	if m == All {
		return "all"
	}
	return "single"
}

// Class is what a loaded manifest turned out to be.
type Class int

const (
	// Concrete manifests describe a package.
	Concrete Class = iota
	// Virtual manifests only list workspace members.
	Virtual
)

// Classify reports whether m is a package or a virtual workspace manifest.
func Classify(m *manifest.Manifest) Class {
	if m.IsVirtual() {
		return Virtual
	}
	return Concrete
}

// Workspace is a root manifest and its members, in traversal order.
type Workspace struct {
	Root    *manifest.Manifest
	Members []*manifest.Manifest
}

// Manifests returns the manifests whose dependencies may be edited: the
// root when it is a package, then every concrete member.
func (w *Workspace) Manifests() []*manifest.Manifest {
	var out []*manifest.Manifest
	if Classify(w.Root) == Concrete {
		out = append(out, w.Root)
	}
	for _, m := range w.Members {
		if Classify(m) == Concrete {
			out = append(out, m)
		}
	}
	return out
}

// Resolver loads workspaces.
type Resolver struct {
	loader *manifest.Loader
	dirFS  func(dir string) fs.FS
	logger *logging.Logger
}

// NewResolver returns a resolver that reads manifests through loader and
// lists member directories on the OS filesystem.
func NewResolver(loader *manifest.Loader, logger *logging.Logger) *Resolver {
	if loader == nil {
		loader = manifest.NewLoader(nil)
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Resolver{loader: loader, dirFS: os.DirFS, logger: logger}
}

// ResolveTargets returns the manifests to operate on, using the OS
// filesystem.
func ResolveTargets(loader *manifest.Loader, manifestPath string, mode Mode) ([]*manifest.Manifest, error) {
	return NewResolver(loader, nil).ResolveTargets(manifestPath, mode)
}

// ResolveTargets loads the manifest at manifestPath. In Single mode it is
// the only target and must not be virtual. In All mode the workspace it
// belongs to is loaded and every package in it is a target. Any manifest
// that fails to load fails the whole resolution.
func (r *Resolver) ResolveTargets(manifestPath string, mode Mode) ([]*manifest.Manifest, error) {
	m, err := r.loader.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	if mode == Single {
		if Classify(m) == Virtual {
			return nil, uperrors.VirtualManifest(manifestPath)
		}
		return []*manifest.Manifest{m}, nil
	}

	root := m
	if m.Workspace == nil {
		root, err = r.FindRoot(m)
		if err != nil {
			return nil, err
		}
		if root == nil {
			r.logger.Debug("package is not part of a workspace", "path", m.Path)
			return []*manifest.Manifest{m}, nil
		}
	}

	ws, err := r.Load(root)
	if err != nil {
		return nil, err
	}
	return ws.Manifests(), nil
}

// Load expands the members of root. A member that is itself a virtual
// manifest has its own members expanded in turn. Each manifest appears
// once.
func (r *Resolver) Load(root *manifest.Manifest) (*Workspace, error) {
	ws := &Workspace{Root: root}
	visited := map[string]struct{}{cleanPath(root.Path): {}}
	if err := r.expand(ws, root, visited); err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *Resolver) expand(ws *Workspace, parent *manifest.Manifest, visited map[string]struct{}) error {
	if parent.Workspace == nil {
		return nil
	}
	dirs, err := ExpandMembers(r.dirFS(parent.Dir()), parent.Workspace.Members, parent.Workspace.Exclude)
	if err != nil {
		return uperrors.MemberLoad(parent.Path, err)
	}
	for _, dir := range dirs {
		p := filepath.Join(parent.Dir(), filepath.FromSlash(dir), manifest.FileName)
		if _, seen := visited[cleanPath(p)]; seen {
			continue
		}
		visited[cleanPath(p)] = struct{}{}

		m, err := r.loader.Load(p)
		if err != nil {
			return uperrors.MemberLoad(p, err)
		}
		r.logger.Debug("loaded workspace member", "path", p, "virtual", m.IsVirtual())
		ws.Members = append(ws.Members, m)
		if Classify(m) == Virtual {
			if err := r.expand(ws, m, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindRoot walks up from the directory of m looking for the workspace
// that lists it as a member. It returns nil when there is none.
func (r *Resolver) FindRoot(m *manifest.Manifest) (*manifest.Manifest, error) {
	memberDir, err := filepath.Abs(m.Dir())
	if err != nil {
		return nil, err
	}
	for dir := filepath.Dir(memberDir); ; dir = filepath.Dir(dir) {
		candidate, err := r.loader.Load(filepath.Join(dir, manifest.FileName))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// keep walking
		case err != nil:
			return nil, err
		case candidate.Workspace != nil:
			if r.lists(candidate, dir, memberDir) {
				return candidate, nil
			}
			return nil, nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return nil, nil
		}
	}
}

// lists reports whether the workspace rooted at rootDir has memberDir
// among its members.
func (r *Resolver) lists(root *manifest.Manifest, rootDir, memberDir string) bool {
	rel, err := filepath.Rel(rootDir, memberDir)
	if err != nil {
		return false
	}
	dirs, err := ExpandMembers(r.dirFS(rootDir), root.Workspace.Members, root.Workspace.Exclude)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, d := range dirs {
		if d == rel {
			return true
		}
	}
	return false
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
