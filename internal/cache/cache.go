package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/Flojomojo/mistral-chat/internal/session"
)

// CachedResponse represents a cached API response
type CachedResponse struct {
	Response  string
	Timestamp time.Time
}

// Cache is an in-memory response cache for the lifetime of the process.
// Identical (model, conversation-prefix) requests are served without a
// network round trip.
type Cache struct {
	entries sync.Map
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{}
}

// Key generates a cache key from the model and the ordered message list.
func Key(model string, messages []session.Message) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, msg := range messages {
		h.Write([]byte(msg.Role))
		h.Write([]byte(msg.Content))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the cached response for key, if present.
func (c *Cache) Get(key string) (string, bool) {
	if val, ok := c.entries.Load(key); ok {
		return val.(CachedResponse).Response, true
	}
	return "", false
}

// Put stores a response under key.
func (c *Cache) Put(key, response string) {
	c.entries.Store(key, CachedResponse{
		Response:  response,
		Timestamp: time.Now(),
	})
}
