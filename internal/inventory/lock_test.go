package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	key := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, locks.Acquire(context.Background(), key)) {
				return
			}
			defer locks.Release(key)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := newKeyedMutex()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, locks.Acquire(context.Background(), first))
	defer locks.Release(first)

	// A different key is not blocked by the held lock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if assert.NoError(t, locks.Acquire(context.Background(), second)) {
			locks.Release(second)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on an independent key blocked")
	}
}

func TestKeyedMutexAcquireHonorsContext(t *testing.T) {
	locks := newKeyedMutex()
	key := uuid.New()

	require.NoError(t, locks.Acquire(context.Background(), key))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locks.Acquire(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	locks.Release(key)

	// The key is usable again after release.
	require.NoError(t, locks.Acquire(context.Background(), key))
	locks.Release(key)
}

func TestKeyedMutexCleansUpIdleEntries(t *testing.T) {
	locks := newKeyedMutex()
	key := uuid.New()

	require.NoError(t, locks.Acquire(context.Background(), key))
	locks.Release(key)

	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()
	assert.Equal(t, 0, remaining, "released keys must not accumulate")
}
