package endpoint

import (
	"strings"
	"sync/atomic"
)

// Cache holds the most recently published payload. Store replaces the whole
// value atomically, so readers always see a complete document.
type Cache struct {
	v atomic.Pointer[string]
}

// NewCache seeds the cache. A blank initial value becomes "{}".
func NewCache(initial string) *Cache {
	if strings.TrimSpace(initial) == "" {
		initial = "{}"
	}
	c := &Cache{}
	c.v.Store(&initial)
	return c
}

// Load returns the current payload.
func (c *Cache) Load() string {
	return *c.v.Load()
}

// Store publishes payload. Blank values are ignored and the previous payload
// stays in place; the return value reports whether the cache changed.
func (c *Cache) Store(payload string) bool {
	if strings.TrimSpace(payload) == "" {
		return false
	}
	c.v.Store(&payload)
	return true
}
