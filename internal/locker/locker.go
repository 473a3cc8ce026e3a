// Package locker serializes the read-check-write sequence of booking
// operations. Locks are keyed by (mechanic, date) so two racing requests for
// the same calendar page cannot both pass the conflict check.
package locker

import (
	"context"
	"sync"
)

// Locker acquires an exclusive lock for a key. The returned function releases
// it. Implementations must be safe for concurrent use.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed is an in-process Locker backed by one mutex per active key. Entries
// are reference-counted and removed once the last holder releases, so the map
// does not grow with the number of distinct days ever booked.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewKeyed creates an in-process keyed locker.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock blocks until the key's mutex is held. The context is only checked
// before acquiring; in-process holders release quickly.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	release := func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
	return release, nil
}
