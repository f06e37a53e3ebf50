package registry

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Memo wraps a Client so each crate is looked up at most once. Concurrent
// lookups of the same crate share one call. Found sets and not-found
// answers are remembered; failed lookups are not.
type Memo struct {
	client Client
	group  singleflight.Group

	mu    sync.Mutex
	cache map[string]memoEntry
}

type memoEntry struct {
	set VersionSet
	err error
}

// NewMemo returns a memoising client over c.
func NewMemo(c Client) *Memo {
	return &Memo{client: c, cache: make(map[string]memoEntry)}
}

// Lookup returns the remembered answer for name, fetching it on first use.
func (m *Memo) Lookup(ctx context.Context, name string) (VersionSet, error) {
	m.mu.Lock()
	e, ok := m.cache[name]
	m.mu.Unlock()
	if ok {
		return e.set, e.err
	}

	v, err, _ := m.group.Do(name, func() (any, error) {
		set, err := m.client.Lookup(ctx, name)
		if err == nil || errors.Is(err, ErrNotFound) {
			m.mu.Lock()
			m.cache[name] = memoEntry{set: set, err: err}
			m.mu.Unlock()
		}
		return set, err
	})
	set, _ := v.(VersionSet)
	return set, err
}

// LookupAll looks up every distinct name concurrently, running at most
// limit lookups at once (no bound when limit <= 0). Crates the registry
// does not know are returned in notFound, in input order. Any other
// failure cancels the remaining lookups and is returned.
func LookupAll(ctx context.Context, c Client, names []string, limit int) (sets map[string]VersionSet, notFound []string, err error) {
	var unique []string
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}

	results := make([]VersionSet, len(unique))
	missing := make([]bool, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, name := range unique {
		g.Go(func() error {
			set, err := c.Lookup(gctx, name)
			if errors.Is(err, ErrNotFound) {
				missing[i] = true
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sets = make(map[string]VersionSet, len(unique))
	for i, name := range unique {
		if missing[i] {
			notFound = append(notFound, name)
			continue
		}
		sets[name] = results[i]
	}
	return sets, notFound, nil
}
