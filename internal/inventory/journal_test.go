package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordAndLookup(t *testing.T) {
	journal := NewJournal(time.Minute)

	outcome := Outcome{Status: StatusCommitted, ProductID: uuid.New(), Quantity: 2, NewStock: 8, Version: 1}
	journal.Record("r1", outcome)

	got, ok := journal.Lookup("r1")
	require.True(t, ok)
	assert.Equal(t, outcome, got)

	_, ok = journal.Lookup("unknown")
	assert.False(t, ok)
}

func TestJournalIgnoresBlankRequestID(t *testing.T) {
	journal := NewJournal(time.Minute)

	journal.Record("", Outcome{Status: StatusCommitted})

	_, ok := journal.Lookup("")
	assert.False(t, ok)
	assert.Equal(t, 0, journal.Len())
}

func TestJournalLookupExpires(t *testing.T) {
	journal := NewJournal(10 * time.Millisecond)

	journal.Record("r1", Outcome{Status: StatusCommitted})
	time.Sleep(20 * time.Millisecond)

	_, ok := journal.Lookup("r1")
	assert.False(t, ok, "an expired entry must not replay")
}

func TestJournalDeleteExpired(t *testing.T) {
	journal := NewJournal(10 * time.Millisecond)

	for i := 0; i < 5; i++ {
		journal.Record(uuid.NewString(), Outcome{Status: StatusCommitted})
	}
	require.Equal(t, 5, journal.Len())

	// Nothing has expired yet.
	assert.Equal(t, 0, journal.DeleteExpired(time.Now(), 100))

	time.Sleep(20 * time.Millisecond)

	// The batch limit bounds a single sweep.
	assert.Equal(t, 3, journal.DeleteExpired(time.Now(), 3))
	assert.Equal(t, 2, journal.DeleteExpired(time.Now(), 100))
	assert.Equal(t, 0, journal.Len())
}
