package llm

import (
	"sync"

	"github.com/mathfish/mathfish/internal/pkg/hash"
)

// ResponseCache caches raw model responses keyed by provider, model,
// and prompt hash so reruns skip paid requests.
type ResponseCache struct {
	mu      sync.RWMutex
	cache   map[string]string
	maxSize int
	order   []string // LRU order
}

// NewResponseCache creates a response cache.
func NewResponseCache(maxSize int) *ResponseCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &ResponseCache{
		cache:   make(map[string]string),
		maxSize: maxSize,
		order:   make([]string, 0, maxSize),
	}
}

// Get retrieves a cached response.
func (c *ResponseCache) Get(provider, model, prompt string) (string, bool) {
	key := hash.CacheKey(provider, model, prompt)

	c.mu.RLock()
	response, ok := c.cache[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	// Move to end of LRU (most recently used)
	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return response, true
}

// Set stores a response in cache.
func (c *ResponseCache) Set(provider, model, prompt, response string) {
	key := hash.CacheKey(provider, model, prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; exists {
		c.cache[key] = response
		c.moveToEnd(key)
		return
	}

	// Evict if at capacity
	for len(c.cache) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = response
	c.order = append(c.order, key)
}

// moveToEnd moves a key to the end of the LRU order (must hold lock).
func (c *ResponseCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

// Size returns the current cache size.
func (c *ResponseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
