package audit

import (
	"sync"
	"time"

	"ledgerline/pkg/domain"
)

// DefaultChainCacheTTL bounds how long a cached tail digest is trusted.
const DefaultChainCacheTTL = 60 * time.Second

// chainCacheMaxEntries bounds memory; beyond it the stalest entry is evicted.
const chainCacheMaxEntries = 10_000

type tailEntry struct {
	eventID domain.EventID
	digest  string
	at      time.Time
}

// chainCache memoizes the last committed digest per tenant so consecutive
// appends skip the store read for the tail. Entries are hints only: the store
// enforces the compare-and-append, so a stale hint costs one retry, never a
// fork.
type chainCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[domain.TenantID]tailEntry
}

func newChainCache(ttl time.Duration) *chainCache {
	if ttl <= 0 {
		ttl = DefaultChainCacheTTL
	}
	return &chainCache{
		ttl:     ttl,
		entries: make(map[domain.TenantID]tailEntry),
	}
}

// get returns the cached tail digest when the entry is younger than the TTL.
func (c *chainCache) get(tenantID domain.TenantID, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[tenantID]
	if !ok || now.Sub(e.at) >= c.ttl {
		return "", false
	}
	return e.digest, true
}

// put records the new tail after a successful append.
func (c *chainCache) put(tenantID domain.TenantID, eventID domain.EventID, digest string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[tenantID]; !ok && len(c.entries) >= chainCacheMaxEntries {
		c.evictStalest()
	}
	c.entries[tenantID] = tailEntry{eventID: eventID, digest: digest, at: now}
}

// invalidate drops a tenant's entry, e.g. after a lost compare-and-append.
func (c *chainCache) invalidate(tenantID domain.TenantID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
}

func (c *chainCache) evictStalest() {
	var stalest domain.TenantID
	var stalestAt time.Time
	first := true
	for id, e := range c.entries {
		if first || e.at.Before(stalestAt) {
			stalest, stalestAt, first = id, e.at, false
		}
	}
	if !first {
		delete(c.entries, stalest)
	}
}
