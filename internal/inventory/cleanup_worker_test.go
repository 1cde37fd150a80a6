package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupWorkerPurgesExpiredEntries(t *testing.T) {
	journal := NewJournal(time.Millisecond)
	for i := 0; i < 10; i++ {
		journal.Record(uuid.NewString(), Outcome{Status: StatusCommitted})
	}
	require.Equal(t, 10, journal.Len())
	time.Sleep(5 * time.Millisecond)

	worker := NewCleanupWorker(journal, zap.NewNop(), 5*time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return journal.Len() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}
