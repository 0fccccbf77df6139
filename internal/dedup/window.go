// Package dedup maintains the sliding window of recently seen fingerprints
// used for near-duplicate suppression.
package dedup

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	fingerprint uint64
	seenAt      time.Time
}

// Window holds fingerprints observed within a trailing time horizon. It is an
// explicit instance owned by the orchestrator, in-memory only: a restart
// empties the window, which can miss a duplicate but never falsely reports
// one. All operations are safe for concurrent use; CheckAndRecord is
// serialized so two concurrent checks of the same fingerprint cannot both
// report it as novel.
type Window struct {
	mu      sync.Mutex
	horizon time.Duration
	clock   clockwork.Clock
	entries []entry // insertion order, timestamps non-decreasing
}

// New creates a Window with the given horizon. Pass a nil clock to use real
// time; tests inject a fake for deterministic eviction.
func New(horizon time.Duration, clock clockwork.Clock) *Window {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Window{horizon: horizon, clock: clock}
}

// CheckAndRecord evicts entries older than the horizon, then reports whether
// fingerprint was already seen. A hit does not refresh the existing entry's
// timestamp; a miss records the fingerprint at the current time.
func (w *Window) CheckAndRecord(fingerprint uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.evict(now.Add(-w.horizon))

	for _, e := range w.entries {
		if e.fingerprint == fingerprint {
			return true
		}
	}
	w.entries = append(w.entries, entry{fingerprint: fingerprint, seenAt: now})
	return false
}

// Len reports the number of live entries after evicting expired ones.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(w.clock.Now().Add(-w.horizon))
	return len(w.entries)
}

// Reset drops all entries. Intended for test isolation and explicit restarts.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = nil
}

// evict removes entries strictly older than cutoff. Entries are in insertion
// order, so eviction stops at the first survivor.
func (w *Window) evict(cutoff time.Time) {
	i := 0
	for i < len(w.entries) && w.entries[i].seenAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}
