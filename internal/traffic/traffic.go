package traffic

import (
	"sync"
	"time"
)

// Outcome classifies how a forecast or summary request ended.
type Outcome int

const (
	// Success covers any response the service produced itself, including 400 and 404.
	Success Outcome = iota
	// Failure is an upstream or internal error (500).
	Failure
	// Denied is a rate-limit rejection (429).
	Denied
)

// retention bounds how long events are kept regardless of the queried window.
const retention = 5 * time.Minute

var defaultTracker Tracker

// Record records an outcome on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// RecordSuccess records a successful request.
func RecordSuccess() { Record(Success) }

// RecordError records an upstream or internal failure.
func RecordError() { Record(Failure) }

// RecordDenied records a rate-limit denial (429).
func RecordDenied() { Record(Denied) }

// RequestCount returns the number of outcomes of any kind within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.DenialCount(window)
}

// ErrorRate returns (errors, total) within the window. Denials are not part of total.
func ErrorRate(window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// ClearErrorWindow drops successes and failures but keeps denials, so overload
// detection is unaffected.
func ClearErrorWindow() {
	defaultTracker.ClearErrorWindow()
}

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker keeps a time-ordered log of outcomes for sliding-window queries.
// The zero value is ready to use.
type Tracker struct {
	mu     sync.Mutex
	events []event
	now    func() time.Time
}

func (t *Tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Record appends an outcome stamped with the current time.
func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	t.events = append(t.events, event{at: now, outcome: o})
	t.pruneLocked(now)
}

// RequestCount returns the number of outcomes of any kind within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	counts := t.countSince(window)
	return counts[Success] + counts[Failure] + counts[Denied]
}

// DenialCount returns the number of denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	return t.countSince(window)[Denied]
}

// ErrorRate returns (errors, total) within the window, where total is successes plus failures.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	counts := t.countSince(window)
	return counts[Failure], counts[Failure] + counts[Success]
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// ClearErrorWindow drops success and failure events, keeping denials.
func (t *Tracker) ClearErrorWindow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.events[:0]
	for _, e := range t.events {
		if e.outcome == Denied {
			kept = append(kept, e)
		}
	}
	t.events = kept
}

func (t *Tracker) countSince(window time.Duration) [3]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var counts [3]int
	cutoff := t.clock().Add(-window)
	// events are appended in time order; walk back until the cutoff.
	for i := len(t.events) - 1; i >= 0; i-- {
		e := t.events[i]
		if e.at.Before(cutoff) {
			break
		}
		counts[e.outcome]++
	}
	return counts
}

// pruneLocked drops events older than retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
