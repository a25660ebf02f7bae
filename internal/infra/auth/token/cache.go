package token

import (
	"crypto/sha256"
	"sync"
	"time"

	"draftd/internal/domain"
)

const principalCacheMaxEntries = 4096

// principalCache memoizes verified principals keyed by a digest of the raw
// token. Entries expire with the token or the cache TTL, whichever is
// sooner; the raw token is never stored.
type principalCache struct {
	ttl time.Duration

	mu      sync.Mutex
	nowFn   func() time.Time
	entries map[[sha256.Size]byte]cacheEntry
}

type cacheEntry struct {
	principal domain.Principal
	expiresAt time.Time
}

func newPrincipalCache(now func() time.Time, ttl time.Duration) *principalCache {
	return &principalCache{
		ttl:     ttl,
		nowFn:   now,
		entries: make(map[[sha256.Size]byte]cacheEntry),
	}
}

func (c *principalCache) get(rawToken string) (domain.Principal, bool) {
	key := sha256.Sum256([]byte(rawToken))
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return domain.Principal{}, false
	}
	if c.nowFn().After(entry.expiresAt) {
		delete(c.entries, key)
		return domain.Principal{}, false
	}
	return entry.principal, true
}

func (c *principalCache) put(rawToken string, principal domain.Principal, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	key := sha256.Sum256([]byte(rawToken))
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= principalCacheMaxEntries {
		now := c.nowFn()
		for k, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= principalCacheMaxEntries {
			return
		}
	}
	c.entries[key] = cacheEntry{
		principal: principal,
		expiresAt: c.nowFn().Add(ttl),
	}
}
