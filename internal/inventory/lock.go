package inventory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// keyedMutex provides one exclusive lock per product ID. Locks are created on
// first use and dropped once the last waiter releases, so the registry stays
// proportional to the set of currently contended products. Acquisition honors
// context cancellation, which is what lets Reserve fail with ErrTimeout
// instead of blocking forever behind a hot product.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  chan struct{} // capacity 1; holding the token means holding the lock
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (k *keyedMutex) Acquire(ctx context.Context, key uuid.UUID) error {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.release(key, false)
		return ctx.Err()
	}
}

// Release frees the lock for key.
func (k *keyedMutex) Release(key uuid.UUID) {
	k.release(key, true)
}

func (k *keyedMutex) release(key uuid.UUID, held bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.locks[key]
	if !ok {
		return
	}

	if held {
		<-entry.sem
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(k.locks, key)
	}
}
