package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache is the session-scoped merged view over the remote catalog and
// the local store. It is constructed once by the composition root and
// shared by reference; there is no package-level instance.
//
// The remote snapshot is fetched at most once per session. Local
// products are re-read from the store on every call because they are
// the mutable half of the view. Soft-deleted remote ids are hidden
// until Invalidate resets the session.
type Cache struct {
	client  *CatalogClient
	store   Store
	log     *zap.Logger
	metrics *Metrics

	mu      sync.Mutex
	remote  []Product // nil until the first successful fetch
	deleted map[string]struct{}

	flight singleflight.Group
}

func NewCache(client *CatalogClient, store Store, log *zap.Logger, metrics *Metrics) *Cache {
	return &Cache{
		client:  client,
		store:   store,
		log:     log,
		metrics: metrics,
		deleted: map[string]struct{}{},
	}
}

// EnsureLoaded returns the merged product view, fetching the remote
// snapshot first when it is not cached yet. Concurrent callers share a
// single in-flight fetch. A failed fetch caches nothing; the caller
// retries via Invalidate followed by another EnsureLoaded.
func (c *Cache) EnsureLoaded(ctx context.Context) ([]Product, error) {
	if !c.loaded() {
		_, err, _ := c.flight.Do("fetch", func() (any, error) {
			if c.loaded() {
				return nil, nil
			}

			c.metrics.fetchAttempt()
			products, err := c.client.FetchAll(ctx)
			if err != nil {
				c.metrics.fetchFailed()
				return nil, err
			}

			c.mu.Lock()
			c.remote = products
			c.mu.Unlock()
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return c.merged(ctx), nil
}

func (c *Cache) loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote != nil
}

func (c *Cache) merged(ctx context.Context) []Product {
	c.mu.Lock()
	out := make([]Product, 0, len(c.remote))
	for _, p := range c.remote {
		if _, hidden := c.deleted[p.ID]; hidden {
			continue
		}
		out = append(out, p)
	}
	c.mu.Unlock()

	locals, err := c.store.LoadAll(ctx)
	if err != nil {
		// Storage trouble degrades to "no local products".
		if c.log != nil {
			c.log.Warn("local store read failed", zap.Error(err))
		}
		locals = nil
	}
	return append(out, locals...)
}

// Find looks a product up in the current merged view.
func (c *Cache) Find(ctx context.Context, id string) (Product, bool, error) {
	all, err := c.EnsureLoaded(ctx)
	if err != nil {
		return Product{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

// Invalidate drops the remote snapshot and the soft-delete set. The
// next EnsureLoaded performs a fresh fetch and previously hidden remote
// products become visible again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.remote = nil
	c.deleted = map[string]struct{}{}
	c.mu.Unlock()
	c.metrics.invalidated()
}

// MarkRemoteDeleted hides a remote product for the rest of the session.
// Idempotent; unknown ids are accepted and simply never match.
func (c *Cache) MarkRemoteDeleted(id string) {
	c.mu.Lock()
	c.deleted[id] = struct{}{}
	c.mu.Unlock()
	c.metrics.remoteDeleted()
}

// PatchRemote merges a partial update onto the matching remote record,
// in memory only. Reports whether a visible record matched. The change
// does not survive Invalidate.
func (c *Cache) PatchRemote(id string, patch ProductPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, hidden := c.deleted[id]; hidden {
		return false
	}
	for i := range c.remote {
		if c.remote[i].ID == id {
			patch.applyTo(&c.remote[i])
			return true
		}
	}
	return false
}
