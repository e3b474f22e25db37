package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/samcharles93/tokbin/pkg/tokfile"
)

// Layout is the resolved logical shape of one split file.
type Layout struct {
	Kind  LayoutKind
	Shape tokfile.Shape
	// Count is the number of valid example indices.
	Count int
}

// split is an opened, resolved token file.
type split struct {
	layout Layout
	file   *tokfile.File
}

type layoutEntry struct {
	mu sync.Mutex
	s  *split
}

// LayoutCache memoizes resolved splits for the lifetime of a dataloader.
// Concurrent first access to a split performs exactly one resolution; later
// callers reuse the first successful result. Failures are not cached.
type LayoutCache struct {
	cfg    Config
	policy *policy

	mu      sync.Mutex
	entries map[string]*layoutEntry
	closed  bool
}

func newLayoutCache(cfg Config) *LayoutCache {
	return &LayoutCache{
		cfg:     cfg,
		policy:  cfg.Variant.policy(),
		entries: make(map[string]*layoutEntry),
	}
}

func (c *LayoutCache) entry(name string) (*layoutEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	e, ok := c.entries[name]
	if !ok {
		e = &layoutEntry{}
		c.entries[name] = e
	}
	return e, nil
}

// get returns the resolved split, resolving it on first use.
func (c *LayoutCache) get(name string) (*split, bool, error) {
	if err := validSplit(name); err != nil {
		return nil, false, err
	}
	e, err := c.entry(name)
	if err != nil {
		return nil, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s != nil {
		return e.s, false, nil
	}
	s, err := c.resolve(name)
	if err != nil {
		return nil, false, err
	}
	e.s = s
	return s, true, nil
}

// resolve probe-opens the file flat to learn its length, closes the probe and
// re-opens it under the variant's shape.
func (c *LayoutCache) resolve(name string) (*split, error) {
	path := c.cfg.SplitPath(name)
	probe, err := tokfile.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrNotPrepared, name, path)
		}
		return nil, err
	}
	n := probe.Len()
	if err := probe.Close(); err != nil {
		return nil, err
	}

	shape, err := c.policy.resolve(c.cfg, n)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	f, err := tokfile.OpenShape(path, shape)
	if err != nil {
		return nil, err
	}
	return &split{
		layout: Layout{Kind: c.policy.layout, Shape: shape, Count: c.policy.count(c.cfg, shape)},
		file:   f,
	}, nil
}

// close unmaps every resolved split. The cache cannot be used afterwards.
func (c *LayoutCache) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	var errs []error
	for name, e := range c.entries {
		e.mu.Lock()
		if e.s != nil {
			if err := e.s.file.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			}
			e.s = nil
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}
