// Package cache memoizes resolution results for repeated identical
// (active-layer-set, explicit-values, requested-fields) requests. Entries
// are immutable once written and cover errors as well as successes. The
// cache is keyed off the rule store's generation: a reloaded store drops
// every prior entry wholesale, so a stale result is never served.
package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/resolver"
	"github.com/vk/planlayer/internal/rules"
)

// entry is one immutable cached outcome.
type entry struct {
	plan *model.ResolvedPlan
	err  error
}

// Cache is a concurrency-safe memoizing front for a Resolver. Two
// concurrent requests for the same key perform at most one real resolution;
// the second reuses the first's result.
type Cache struct {
	group singleflight.Group

	mu         sync.Mutex
	generation uint64
	entries    map[uint64]entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[uint64]entry)}
}

// isCancellation reports whether err stems from a caller's context rather
// than from the request itself.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Resolve returns the cached outcome for the request, running the resolver
// at most once per key per store generation. The store generation is part
// of the flight key, so a request carrying a reloaded store never joins a
// resolution that ran against the old rules. Cancellation errors reflect
// one caller's context, not the request, and are neither cached nor allowed
// to fail a waiting caller whose own context is still live.
func (c *Cache) Resolve(ctx context.Context, r *resolver.Resolver, store *rules.Store, plan model.Plan, requested []model.Path) (*model.ResolvedPlan, error) {
	gen := store.Generation()
	key := requestKey(gen, plan, requested)
	digest := xxhash.Sum64String(key)

	c.mu.Lock()
	if gen != c.generation {
		// Rule store reloaded: invalidate wholesale.
		c.generation = gen
		c.entries = make(map[uint64]entry)
	}
	if e, ok := c.entries[digest]; ok {
		c.mu.Unlock()
		return e.plan, e.err
	}
	c.mu.Unlock()

	for {
		v, err, _ := c.group.Do(key, func() (any, error) {
			rp, err := r.Resolve(ctx, store, plan, requested)
			if isCancellation(err) {
				return rp, err
			}
			c.mu.Lock()
			if store.Generation() == c.generation {
				c.entries[digest] = entry{plan: rp, err: err}
			}
			c.mu.Unlock()
			return rp, err
		})
		if isCancellation(err) && ctx.Err() == nil {
			// The shared flight was led by a caller that canceled; this
			// caller is still live, so resolve again on its own context.
			continue
		}
		rp, _ := v.(*model.ResolvedPlan)
		return rp, err
	}
}

// Len returns the number of cached entries, for tests and introspection.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
