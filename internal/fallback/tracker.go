package fallback

import (
	"sync"
	"time"

	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/taxonomy"
)

const (
	// DefaultWindow is the rolling period over which failures count
	// toward instability.
	DefaultWindow = 5 * time.Minute
	// DefaultThreshold marks a model unstable at this many failures
	// within the window.
	DefaultThreshold = 3
)

type failureEntry struct {
	at       time.Time
	category taxonomy.Category
}

type failureRecord struct {
	entries      []failureEntry
	lastCategory taxonomy.Category
}

// Tracker keeps a bounded sliding window of recent failures per model.
// It is constructed once per process and shared by reference across
// orchestrators; concurrent consensus tasks read and mutate it, so all
// access goes through the mutex.
type Tracker struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	records   map[models.ModelID]*failureRecord
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		window:    DefaultWindow,
		threshold: DefaultThreshold,
		records:   make(map[models.ModelID]*failureRecord),
		now:       time.Now,
	}
}

// RecordFailure appends a timestamped entry and prunes entries older than
// the window.
func (t *Tracker) RecordFailure(id models.ModelID, errMsg string) {
	cls := taxonomy.Classify(errMsg)

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[id]
	if rec == nil {
		rec = &failureRecord{}
		t.records[id] = rec
	}
	rec.entries = append(rec.entries, failureEntry{at: t.now(), category: cls.Category})
	rec.lastCategory = cls.Category
	t.pruneLocked(rec)
}

// IsUnstable reports whether the model crossed the failure threshold
// within the rolling window. Advisory only; it never blocks a query.
func (t *Tracker) IsUnstable(id models.ModelID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[id]
	if rec == nil {
		return false
	}
	t.pruneLocked(rec)
	return len(rec.entries) >= t.threshold
}

// LastCategory returns the most recent failure category for a model, or
// Unknown if it never failed.
func (t *Tracker) LastCategory(id models.ModelID) taxonomy.Category {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[id]
	if rec == nil || rec.lastCategory == "" {
		return taxonomy.Unknown
	}
	return rec.lastCategory
}

// FailureCount returns the number of failures inside the current window.
func (t *Tracker) FailureCount(id models.ModelID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[id]
	if rec == nil {
		return 0
	}
	t.pruneLocked(rec)
	return len(rec.entries)
}

func (t *Tracker) pruneLocked(rec *failureRecord) {
	cutoff := t.now().Add(-t.window)
	kept := rec.entries[:0]
	for _, e := range rec.entries {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	rec.entries = kept
}
