// Package rulecache caches compiled keyword rule sets per user so rules
// are not recompiled on every message. Entries are fingerprinted over the
// raw configuration strings; an unchanged configuration is never
// recompiled even after an invalidation.
package rulecache

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"notifier/internal/keywords"
)

// Entry holds one user's compiled rules together with the fingerprint of
// the raw configuration they were compiled from.
type Entry struct {
	Rules       keywords.ParsedKeywords
	Ignore      keywords.IgnoreList
	fingerprint uint64
}

// Cache is a concurrency-safe compiled-rule cache keyed by user ID.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Get returns the compiled rules for a user, compiling the raw
// configuration strings only when no entry exists or the fingerprint
// changed. The returned entry is shared and must be treated as read-only.
func (c *Cache) Get(userID, rawKeywords, rawIgnore string) *Entry {
	fp := fingerprint(rawKeywords, rawIgnore)

	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if ok && entry.fingerprint == fp {
		return entry
	}

	entry = &Entry{
		Rules:       keywords.Compile(rawKeywords),
		Ignore:      keywords.CompileIgnore(rawIgnore),
		fingerprint: fp,
	}

	c.mu.Lock()
	c.entries[userID] = entry
	c.mu.Unlock()
	return entry
}

// Invalidate drops the cached entry for one user. The next Get recompiles
// from whatever raw configuration the caller supplies.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// fingerprint hashes both raw configuration strings with a separator so
// shifting text between the two fields changes the fingerprint.
func fingerprint(rawKeywords, rawIgnore string) uint64 {
	h := xxhash.New()
	h.WriteString(rawKeywords)
	h.Write([]byte{0})
	h.WriteString(rawIgnore)
	return h.Sum64()
}
