// Package cache implements the optional Variable-Aware Cache (spec
// §6.3): a query that the schema says is safe to cache is keyed by a
// caller-supplied
// fingerprint (typically query shape plus the resolved system
// variables it depends on) and built at most once concurrently per
// fingerprint, adapted from the teacher's internal/callgroup
// deduplication idiom onto golang.org/x/sync/singleflight. The query
// engine accepts a Service (queryengine.WithCache, Options.Cache) but
// its Fetch and FetchOne neither read from nor fill it; a caller that
// wants caching calls ResolveFromCache itself.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"triplequery/internal/querymodel"
)

// Service is the cache collaborator interface (spec §6.3).
type Service interface {
	// CanCacheQuery reports whether q should go through the cache at
	// all. schemaCacheable is the schema service's own verdict (spec
	// §6.2 can_cache_query); the cache may further refuse queries it
	// cannot key deterministically (e.g. ones reading session vars).
	CanCacheQuery(q *querymodel.Query, schemaCacheable bool) bool

	// ResolveFromCache returns the cached result for fingerprint if
	// present, else invokes build at most once across concurrent
	// callers sharing the same fingerprint and caches its result.
	ResolveFromCache(ctx context.Context, fingerprint string, build func(ctx context.Context) (*querymodel.FetchResult, error)) (*querymodel.FetchResult, error)
}

// SingleflightCache is an in-memory Service. Entries never expire on
// their own; Invalidate/InvalidateAll let a caller (typically the
// subscription coordinator reacting to a write batch) drop entries
// that a write may have staled.
type SingleflightCache struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*querymodel.FetchResult
}

// NewSingleflightCache returns an empty cache.
func NewSingleflightCache() *SingleflightCache {
	return &SingleflightCache{entries: make(map[string]*querymodel.FetchResult)}
}

func (c *SingleflightCache) CanCacheQuery(q *querymodel.Query, schemaCacheable bool) bool {
	return schemaCacheable
}

func (c *SingleflightCache) ResolveFromCache(ctx context.Context, fingerprint string, build func(ctx context.Context) (*querymodel.FetchResult, error)) (*querymodel.FetchResult, error) {
	c.mu.RLock()
	if cached, ok := c.entries[fingerprint]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		result, err := build(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[fingerprint] = result
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*querymodel.FetchResult), nil
}

// Invalidate drops a single cached fingerprint.
func (c *SingleflightCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	delete(c.entries, fingerprint)
	c.mu.Unlock()
}

// InvalidateAll drops every cached entry, used when a write batch
// touches a collection broadly enough that per-fingerprint
// invalidation isn't worth tracking.
func (c *SingleflightCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*querymodel.FetchResult)
	c.mu.Unlock()
}
