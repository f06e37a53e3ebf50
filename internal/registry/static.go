package registry

import (
	"context"
	"strings"
	"sync"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
)

// StaticClient serves version sets from memory. It records how often each
// crate was looked up.
type StaticClient struct {
	mu    sync.Mutex
	index map[string][]Release
	calls map[string]int
}

// NewStaticClient returns a client over index, keyed by crate name.
func NewStaticClient(index map[string][]Release) *StaticClient {
	c := &StaticClient{
		index: make(map[string][]Release, len(index)),
		calls: make(map[string]int),
	}
	for name, releases := range index {
		c.index[strings.ToLower(name)] = releases
	}
	return c
}

// StaticVersions returns a client where every listed version is published
// and none is yanked.
func StaticVersions(index map[string][]string) *StaticClient {
	releases := make(map[string][]Release, len(index))
	for name, versions := range index {
		for _, v := range versions {
			releases[name] = append(releases[name], Release{Name: name, Version: v})
		}
	}
	return NewStaticClient(releases)
}

// Lookup returns the set for name.
func (c *StaticClient) Lookup(ctx context.Context, name string) (VersionSet, error) {
	if err := ctx.Err(); err != nil {
		return VersionSet{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
	releases, ok := c.index[strings.ToLower(name)]
	if !ok {
		return VersionSet{}, uperrors.CrateNotFound(name)
	}
	return NewVersionSet(name, releases), nil
}

// Calls returns how many times name was looked up.
func (c *StaticClient) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}
