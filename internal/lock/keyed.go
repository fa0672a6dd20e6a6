package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Keyed serializes work per tournament. Callers holding different keys never
// block each other.
type Keyed struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[uuid.UUID]*entry)}
}

// Lock blocks until the key is free or ctx is done. The returned func must be
// called exactly once.
func (k *Keyed) Lock(ctx context.Context, key uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.release(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			k.release(key, e)
		})
	}, nil
}

func (k *Keyed) release(key uuid.UUID, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
