package store

import (
	"context"
	"sync"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
)

type cachedAnswer struct {
	answer    string
	expiresAt time.Time
}

// InMemoryAnswerCache is the fallback when Redis is not configured or
// unreachable. Expired entries are dropped lazily on read.
type InMemoryAnswerCache struct {
	lock    *sync.RWMutex
	answers map[string]cachedAnswer
	now     func() time.Time
}

func InitAnswerCache() *InMemoryAnswerCache {
	return &InMemoryAnswerCache{
		lock:    new(sync.RWMutex),
		answers: make(map[string]cachedAnswer),
		now:     time.Now,
	}
}

func (c *InMemoryAnswerCache) GetAnswer(ctx context.Context, key string) (string, bool) {
	c.lock.RLock()
	entry, ok := c.answers[key]
	c.lock.RUnlock()
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		c.lock.Lock()
		delete(c.answers, key)
		c.lock.Unlock()
		return "", false
	}
	return entry.answer, true
}

func (c *InMemoryAnswerCache) SaveAnswer(ctx context.Context, key string, answer string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.answers[key] = cachedAnswer{
		answer:    answer,
		expiresAt: c.now().Add(config.AnswerCacheTTL),
	}
	return nil
}
