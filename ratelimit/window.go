// Package ratelimit implements the client-side token budget: a sliding-window
// counter that admits or rejects requests before any network call is made.
//
// This is deliberately not a token bucket with continuous refill. Admission
// is binary per request: either the whole estimated cost fits in the trailing
// window or the request is rejected with the wait until it would.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// usageRecord tracks one admitted request. Records are owned exclusively by
// the Window and discarded once older than the window span.
type usageRecord struct {
	timestamp time.Time
	tokens    int
}

// LimitError is returned when an admission would exceed the ceiling.
// Wait is the duration until the oldest in-window record expires, i.e. the
// earliest moment a retry could possibly succeed.
type LimitError struct {
	Wait    time.Duration
	Used    int
	Request int
	Ceiling int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("token budget exceeded (%d used + %d requested > %d); retry in %s",
		e.Used, e.Request, e.Ceiling, e.Wait.Round(time.Second))
}

// Config holds the window policy.
type Config struct {
	// Ceiling is the maximum token sum admitted within any trailing Span.
	Ceiling int
	// Span is the window duration.
	Span time.Duration
}

// DefaultConfig matches the provider policy the service was tuned against:
// 6000 estimated tokens per rolling minute.
func DefaultConfig() Config {
	return Config{Ceiling: 6000, Span: time.Minute}
}

// Window is the sliding-window token budget. The check-and-record step in
// Admit is atomic under one mutex so concurrent callers cannot both pass a
// check that only one budget permits.
//
// The clock is injected so tests can drive time deterministically.
//
// Example:
//
//	window := ratelimit.NewWindow(ratelimit.DefaultConfig())
//	if err := window.Admit(1200); err != nil {
//	    var limitErr *ratelimit.LimitError
//	    if errors.As(err, &limitErr) {
//	        // report limitErr.Wait to the caller
//	    }
//	}
type Window struct {
	mu      sync.Mutex
	records []usageRecord
	config  Config
	now     func() time.Time
}

// NewWindow creates a Window with the given policy and the real clock.
func NewWindow(config Config) *Window {
	return NewWindowWithClock(config, time.Now)
}

// NewWindowWithClock creates a Window with an injected clock for tests.
func NewWindowWithClock(config Config, now func() time.Time) *Window {
	return &Window{
		config: config,
		now:    now,
	}
}

// Admit checks whether tokens fit in the current window and, if so, records
// the usage. All-or-nothing: on rejection nothing is recorded and a
// *LimitError reports the wait time.
//
// Requests larger than the ceiling itself can never be admitted; they are
// rejected with Wait equal to the span as a signal that waiting will not
// help at the current size.
func (w *Window) Admit(requested int) error {
	if requested < 0 {
		requested = 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)

	used := 0
	for _, record := range w.records {
		used += record.tokens
	}

	if used+requested > w.config.Ceiling {
		wait := w.config.Span
		if len(w.records) > 0 {
			wait = w.config.Span - now.Sub(w.records[0].timestamp)
			if wait < 0 {
				wait = 0
			}
		}
		return &LimitError{
			Wait:    wait,
			Used:    used,
			Request: requested,
			Ceiling: w.config.Ceiling,
		}
	}

	w.records = append(w.records, usageRecord{timestamp: now, tokens: requested})
	return nil
}

// Usage returns the token sum currently counted against the ceiling.
func (w *Window) Usage() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	used := 0
	for _, record := range w.records {
		used += record.tokens
	}
	return used
}

// Cleanup prunes expired records and returns how many were removed.
// Admission prunes lazily; this exists for the periodic ticker so an idle
// process does not hold a stale slice.
func (w *Window) Cleanup() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	before := len(w.records)
	w.pruneLocked(w.now())
	return before - len(w.records)
}

// StartCleanupTicker runs Cleanup every interval until ctx is cancelled.
func (w *Window) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Cleanup()
			}
		}
	}()
}

// pruneLocked drops records older than the span. Caller holds the mutex.
// Records are insertion-ordered, so the survivors are a suffix.
func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.config.Span)
	expired := 0
	for expired < len(w.records) && !w.records[expired].timestamp.After(cutoff) {
		expired++
	}
	if expired > 0 {
		w.records = append(w.records[:0], w.records[expired:]...)
	}
}
