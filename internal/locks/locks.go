// Package locks serializes report creation per target user id. The registry
// counts holders and waiters per entry and drops the entry once the count
// returns to zero, so user ids with no pending reports never accumulate.
package locks

import (
	"context"
	"sync"
)

type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	refs int
	sem  chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Lock acquires the per-user mutex, queueing behind any current holder. The
// returned guard must be unlocked exactly once; Unlock is idempotent.
func (r *Registry) Lock(ctx context.Context, userID string) (*Guard, error) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		r.entries[userID] = e
	}
	e.refs++
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return &Guard{registry: r, entry: e, userID: userID}, nil
	case <-ctx.Done():
		r.release(userID, e)
		return nil, ctx.Err()
	}
}

// TryLock acquires the per-user mutex only when no one holds it. It never
// blocks; the second return reports success.
func (r *Registry) TryLock(userID string) (*Guard, bool) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		r.entries[userID] = e
	}
	e.refs++
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return &Guard{registry: r, entry: e, userID: userID}, true
	default:
		r.release(userID, e)
		return nil, false
	}
}

func (r *Registry) release(userID string, e *entry) {
	r.mu.Lock()
	e.refs--
	// Pointer identity stands in for a generation id: a later waiter may have
	// installed a fresh entry under the same key.
	if e.refs == 0 && r.entries[userID] == e {
		delete(r.entries, userID)
	}
	r.mu.Unlock()
}

func (r *Registry) Contains(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[userID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type Guard struct {
	registry *Registry
	entry    *entry
	userID   string
	once     sync.Once
}

func (g *Guard) Unlock() {
	g.once.Do(func() {
		<-g.entry.sem
		g.registry.release(g.userID, g.entry)
	})
}
