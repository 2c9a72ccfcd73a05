// Package coordinator serializes mutating work per room.
package coordinator

import (
	"context"
	"sync"
)

// Coordinator runs at most one function at a time per key. Waiters acquire
// in arrival order; different keys never block each other.
type Coordinator struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int // Holders plus waiters
}

// New creates a Coordinator
func New() *Coordinator {
	return &Coordinator{
		locks: make(map[string]*keyLock),
	}
}

// Do runs fn inside the exclusive section for key. It returns ctx.Err() if the
// context ends before the section is acquired; once fn starts it runs to completion.
func (c *Coordinator) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l := c.ref(key)
	defer c.unref(key, l)

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	return fn(ctx)
}

// Active returns the number of keys currently held or waited on
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}

func (c *Coordinator) ref(key string) *keyLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		c.locks[key] = l
	}
	l.refs++
	return l
}

func (c *Coordinator) unref(key string, l *keyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, key)
	}
}
