package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRefreshWorkerWarmsListing(t *testing.T) {
	inner, _ := seedStore(t, 2)
	store := &countingStore{inner: inner}
	reader := NewProductReader(New(10, time.Minute), store, zap.NewNop())

	worker := NewRefreshWorker(reader, zap.NewNop(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return store.listCalls.Load() >= 1
	}, time.Second, time.Millisecond)

	// The listing is now warm; a foreground read hits the cache.
	products, err := reader.ListProducts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, int64(1), store.listCalls.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}
