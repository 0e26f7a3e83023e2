package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL bounds how long a normalization result is reused.
	DefaultCacheTTL = time.Hour
	// cachePruneThreshold triggers an opportunistic sweep of expired entries.
	cachePruneThreshold = 1000
	// cacheKeyPrefixBytes is how much of the content feeds the cache key.
	// Longer inputs sharing this prefix collide; see the collision test.
	cacheKeyPrefixBytes = 32 * 1024
)

// Result is the cached outcome of normalizing one piece of content to
// English.
type Result struct {
	Detection      Detection `json:"detection"`
	TranslatedText string    `json:"translated_text"`
	Translated     bool      `json:"translated"`
}

// Cache maps content fingerprints to normalization results. Entries older
// than the TTL are treated as absent on read and evicted.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool)
	Set(ctx context.Context, key string, res *Result)
	Len(ctx context.Context) int
	Clear(ctx context.Context)
}

// CacheKey fingerprints content by hashing its leading bytes.
func CacheKey(content string) string {
	b := []byte(content)
	if len(b) > cacheKeyPrefixBytes {
		b = b[:cacheKeyPrefixBytes]
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	res      Result
	cachedAt time.Time
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration

	now func() time.Time
}

func NewMemoryCache(ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &memoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.cachedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	res := e.res
	return &res, true
}

func (c *memoryCache) Set(_ context.Context, key string, res *Result) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{res: *res, cachedAt: c.now()}
	if len(c.entries) > cachePruneThreshold {
		c.pruneLocked()
	}
}

// pruneLocked drops every expired entry. Called with the mutex held.
func (c *memoryCache) pruneLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.cachedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *memoryCache) Len(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *memoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
