package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wexinc/cargo-upgrade/internal/manifest"
)

// ErrInvalidPattern is returned for member patterns that cannot be matched.
var ErrInvalidPattern = errors.New("invalid member pattern")

// ExpandMembers resolves workspace member patterns against a snapshot of
// the workspace root directory. Plain paths are kept as written, even when
// they hold no manifest, so that loading them reports the problem. Glob
// patterns use path.Match syntax, so `**` matches a single element, and
// only match directories that contain a Cargo.toml. Paths under
// an exclude entry are dropped. The result is slash-separated, relative to
// the root, deduplicated and sorted.
func ExpandMembers(root fs.FS, patterns, exclude []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if excluded(p, exclude) {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, pattern := range patterns {
		clean := path.Clean(filepath.ToSlash(pattern))
		if !isGlob(clean) {
			add(clean)
			continue
		}
		if !fs.ValidPath(clean) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		matches, err := fs.Glob(root, clean)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
		}
		for _, m := range matches {
			if info, err := fs.Stat(root, path.Join(m, manifest.FileName)); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[")
}

func excluded(p string, exclude []string) bool {
	for _, e := range exclude {
		e = path.Clean(filepath.ToSlash(e))
		if p == e || strings.HasPrefix(p, e+"/") {
			return true
		}
	}
	return false
}
