package registry

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
)

// DirClient reads a sparse index laid out on disk, for offline use.
type DirClient struct {
	root string
}

// NewDirClient returns a client for the index rooted at dir.
func NewDirClient(dir string) *DirClient {
	return &DirClient{root: dir}
}

// Lookup reads the index file of name.
func (c *DirClient) Lookup(ctx context.Context, name string) (VersionSet, error) {
	if err := ctx.Err(); err != nil {
		return VersionSet{}, err
	}
	data, err := os.ReadFile(filepath.Join(c.root, filepath.FromSlash(IndexPath(name))))
	if errors.Is(err, fs.ErrNotExist) {
		return VersionSet{}, uperrors.CrateNotFound(name)
	}
	if err != nil {
		return VersionSet{}, uperrors.RegistryLookup(name, err)
	}
	releases, err := ParseIndex(data)
	if err != nil {
		return VersionSet{}, uperrors.RegistryLookup(name, err)
	}
	return NewVersionSet(name, releases), nil
}
