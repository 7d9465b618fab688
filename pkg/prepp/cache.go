package prepp

import (
	"container/list"
	"sync"
)

// MatchCache memoizes line classification. Loop replay re-reads the same
// body text once per iteration, so identical lines hit the matcher
// repeatedly; the cache turns those re-matches into a map lookup. Entries
// are evicted least-recently-used.
type MatchCache struct {
	mu      sync.Mutex
	entries map[string]*matchCacheEntry
	lru     *list.List
	maxSize int
}

type matchCacheEntry struct {
	key     string
	match   *Match
	element *list.Element
}

// NewMatchCache creates a cache holding at most maxSize classified lines;
// 0 disables caching entirely.
func NewMatchCache(maxSize int) *MatchCache {
	return &MatchCache{
		entries: make(map[string]*matchCacheEntry),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Match classifies line, consulting the cache first.
func (c *MatchCache) Match(line string) *Match {
	if c == nil || c.maxSize == 0 {
		return MatchLine(line)
	}

	c.mu.Lock()
	if entry, ok := c.entries[line]; ok {
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.match
	}
	c.mu.Unlock()

	m := MatchLine(line)

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[line]; ok {
		return entry.match
	}
	entry := &matchCacheEntry{key: line, match: m}
	entry.element = c.lru.PushFront(entry)
	c.entries[line] = entry
	for len(c.entries) > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted := c.lru.Remove(oldest).(*matchCacheEntry)
		delete(c.entries, evicted.key)
	}
	return m
}

// Len returns the number of cached lines.
func (c *MatchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all cached lines.
func (c *MatchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*matchCacheEntry)
	c.lru.Init()
}
