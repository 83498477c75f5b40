package memorystore

import (
	"context"
	"sync"

	"github.com/open-rails/tutorkit/session"
)

// SessionCache is an in-memory implementation of bus.CacheStore, used in
// tests and as a fallback when no cache path is configured. Writes replace
// the whole entry under one lock, so concurrent writers can never leave a
// mixed record behind.
type SessionCache struct {
	mu        sync.RWMutex
	entry     session.Entry
	populated bool
}

func NewSessionCache() *SessionCache {
	return &SessionCache{}
}

func (c *SessionCache) Write(ctx context.Context, e session.Entry) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = e
	c.populated = true
	return nil
}

func (c *SessionCache) Read(ctx context.Context) (session.Entry, session.State, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.populated || !c.entry.Complete() {
		return session.Entry{}, session.SignedOut, nil
	}
	return c.entry, session.SignedIn, nil
}

func (c *SessionCache) Clear(ctx context.Context) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = session.Entry{}
	c.populated = false
	return nil
}
