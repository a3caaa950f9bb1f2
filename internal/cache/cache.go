// Package cache holds computed catalog listings in a ristretto cache. Entries
// are grouped by kind so that a write to one table drops only that table's
// listings.
package cache

import (
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

type Cache struct {
	store *ristretto.Cache[string, any]
	ttl   time.Duration

	mu   sync.RWMutex
	gens map[string]uint64
}

// New creates a cache bounded by maxCost. Callers pass each entry's cost.
func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: maxCost / 100,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, ttl: ttl, gens: make(map[string]uint64)}, nil
}

// Generation returns the current generation of group. Read it before loading
// the data that will be passed to Set.
func (c *Cache) Generation(group string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[group]
}

func key(group string, gen uint64, k string) string {
	return group + "#" + strconv.FormatUint(gen, 10) + "|" + k
}

func (c *Cache) Get(group, k string) (any, bool) {
	return c.store.Get(key(group, c.Generation(group), k))
}

// Set stores value under generation gen of group. It is dropped when group
// was invalidated since gen was read, so a load that raced a write is never
// served. Ristretto admission is probabilistic, so a Set can also be
// dropped; Wait flushes the write buffers.
func (c *Cache) Set(group string, gen uint64, k string, value any, cost int64) bool {
	if c.Generation(group) != gen {
		return false
	}
	return c.store.SetWithTTL(key(group, gen, k), value, cost, c.ttl)
}

// Invalidate makes every entry of group unreachable. Old entries age out
// through TTL and eviction.
func (c *Cache) Invalidate(group string) {
	c.mu.Lock()
	c.gens[group]++
	c.mu.Unlock()
}

func (c *Cache) Wait() { c.store.Wait() }

func (c *Cache) Clear() { c.store.Clear() }

func (c *Cache) Close() { c.store.Close() }
