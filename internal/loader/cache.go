package loader

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes raw tables of a wrapped Loader by dataset id. Concurrent
// loads of the same id share one read of the source.
type Cache struct {
	inner  Loader
	logger *slog.Logger

	mu     sync.RWMutex
	tables map[string]*core.RawTable
	// gen is bumped by every invalidation so that loads started before it
	// do not repopulate the cache with stale data.
	gen   uint64
	group singleflight.Group
}

// NewCache wraps inner.
func NewCache(inner Loader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		inner:  inner,
		logger: logger,
		tables: make(map[string]*core.RawTable),
	}
}

// Datasets is not cached.
func (c *Cache) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	return c.inner.Datasets(ctx)
}

// Load returns the cached table for id, loading it on a miss.
// Callers must not modify the returned table.
func (c *Cache) Load(ctx context.Context, id string) (*core.RawTable, error) {
	c.mu.RLock()
	t, ok := c.tables[id]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, shared := c.group.Do(id, func() (any, error) {
		t, err := c.inner.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.tables[id] = t
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("dataset cache miss", slog.String("dataset", id), slog.Bool("shared", shared))
	return v.(*core.RawTable), nil
}

// Invalidate drops one dataset.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, id)
	c.gen++
	c.group.Forget(id)
}

// InvalidateAll drops every cached dataset.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.tables {
		c.group.Forget(id)
	}
	clear(c.tables)
	c.gen++
}

// Len returns the number of cached datasets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
