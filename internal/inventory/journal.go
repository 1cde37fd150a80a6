package inventory

import (
	"strings"
	"sync"
	"time"
)

const defaultDedupWindow = 5 * time.Minute

// Journal remembers committed reservation outcomes for a bounded dedup window,
// keyed by requestID. It makes client retries after a dropped response
// idempotent: a replayed requestID returns the recorded outcome instead of
// decrementing stock again. Entries expire after the window and are purged by
// the CleanupWorker.
type Journal struct {
	mu     sync.RWMutex
	window time.Duration
	items  map[string]journalEntry
}

type journalEntry struct {
	outcome   Outcome
	expiresAt time.Time
}

// NewJournal creates a journal with the given dedup window. A non-positive
// window falls back to the default of five minutes.
func NewJournal(window time.Duration) *Journal {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &Journal{
		window: window,
		items:  make(map[string]journalEntry),
	}
}

// Record stores a committed outcome under requestID. Blank requestIDs are not
// tracked; such calls simply forgo retry protection.
func (j *Journal) Record(requestID string, outcome Outcome) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.items[requestID] = journalEntry{
		outcome:   outcome,
		expiresAt: time.Now().UTC().Add(j.window),
	}
}

// Lookup returns the recorded outcome for requestID if it is still inside the
// dedup window.
func (j *Journal) Lookup(requestID string) (Outcome, bool) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Outcome{}, false
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	entry, ok := j.items[requestID]
	if !ok || time.Now().UTC().After(entry.expiresAt) {
		return Outcome{}, false
	}
	return entry.outcome, true
}

// DeleteExpired removes up to limit entries that expired before the given
// time and reports how many were removed. A limit of zero or less removes all
// expired entries.
func (j *Journal) DeleteExpired(before time.Time, limit int) int {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	removed := 0
	for requestID, entry := range j.items {
		if entry.expiresAt.After(before) {
			continue
		}

		delete(j.items, requestID)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}

	return removed
}

// Len reports the number of tracked entries, expired or not.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.items)
}
