package oauth2

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// tokenEntry is an immutable cache record. Refreshing a token stores a
// new entry; existing entries are never mutated.
type tokenEntry struct {
	token     string
	issuedAt  time.Time
	expiresAt time.Time
	scopes    []string
}

// validAt reports whether the entry can still be served at now,
// keeping the safety margin clear of the actual expiry so a token is
// never handed out about to expire mid-flight.
func (e *tokenEntry) validAt(now time.Time, margin time.Duration) bool {
	return now.Before(e.expiresAt.Add(-margin))
}

// TokenCache provides thread-safe storage for bearer tokens keyed by
// scope set and client identity. It holds process-wide shared state for
// a test session and is constructed explicitly rather than living in a
// package-level global, so sessions stay isolated.
type TokenCache struct {
	mu      sync.RWMutex
	entries map[string]*tokenEntry
}

// NewTokenCache creates an empty token cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		entries: make(map[string]*tokenEntry),
	}
}

func (c *TokenCache) lookup(key string, margin time.Duration) (*tokenEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !entry.validAt(time.Now(), margin) {
		return nil, false
	}
	return entry, true
}

func (c *TokenCache) store(key string, entry *tokenEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// Delete removes the entry for key.
func (c *TokenCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all cached tokens. Intended for test isolation between
// suites sharing a cache.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*tokenEntry)
}

// Len returns the number of cached entries.
func (c *TokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// normalizeScopes sorts and deduplicates a scope list so that scope
// sets differing only in order or duplicates produce identical cache
// keys.
func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	sorted := make([]string, len(scopes))
	copy(sorted, scopes)
	sort.Strings(sorted)

	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// cacheKey derives the cache identity from the token endpoint, client
// and normalized scope set.
func cacheKey(tokenURL, clientID string, scopes []string) string {
	return tokenURL + "|" + clientID + "|" + strings.Join(normalizeScopes(scopes), " ")
}
