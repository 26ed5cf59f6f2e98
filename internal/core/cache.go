package core

import (
	"sync"
	"time"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// DefaultBookListTTL bounds how stale a cached author book list may get
// between polls.
const DefaultBookListTTL = 5 * time.Minute

// BookListCache holds author book lists for a bounded time. It is an
// explicit dependency of the poller rather than a package-level singleton,
// with an injectable clock so tests never wait on the wall clock.
//
// A zero or negative TTL disables caching entirely.
type BookListCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[int64]bookListEntry
}

type bookListEntry struct {
	books     []model.Book
	fetchedAt time.Time
}

func NewBookListCache(ttl time.Duration) *BookListCache {
	return NewBookListCacheWithClock(ttl, time.Now)
}

func NewBookListCacheWithClock(ttl time.Duration, now func() time.Time) *BookListCache {
	return &BookListCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]bookListEntry),
	}
}

// Get returns the cached list for an author if it is still fresh.
func (c *BookListCache) Get(authorID int64) ([]model.Book, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[authorID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(c.entries, authorID)
		return nil, false
	}
	return e.books, true
}

func (c *BookListCache) Put(authorID int64, books []model.Book) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[authorID] = bookListEntry{books: books, fetchedAt: c.now()}
}

// Invalidate drops one author's entry, for callers that just mutated the
// author's books.
func (c *BookListCache) Invalidate(authorID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, authorID)
}
