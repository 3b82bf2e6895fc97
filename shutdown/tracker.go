// Package shutdown provides graceful shutdown infrastructure molecules.
// This package composes atoms from core (ShutdownFunc, exit codes) into
// coordination components: an in-flight request tracker, an ordered hook
// registry, a repeated-signal counter, and a Manager organism tying them
// together.
package shutdown

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTrackerClosed is returned when trying to start a request on a closed tracker.
var ErrTrackerClosed = errors.New("request tracker is closed")

// ErrWaitTimeout is returned when Wait times out before in-flight requests drain.
var ErrWaitTimeout = errors.New("wait timeout: in-flight requests did not drain in time")

// Tracker counts in-flight requests so shutdown can drain them before
// closing the completion client and the store.
//
// Usage:
//
//	if !tracker.Start() {
//	    return // shutting down, reject the request
//	}
//	defer tracker.Done()
type Tracker struct {
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active int64
	closed bool
}

// NewTracker creates a Tracker ready to count requests.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Start attempts to admit a new request. It returns false once the tracker
// is closed, at which point the caller should reject the request.
//
// A true return obligates the caller to call Done exactly once.
func (t *Tracker) Start() bool {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return false
	}
	t.mu.RUnlock()

	// Re-check under the write lock so Close cannot race past us.
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	t.wg.Add(1)
	atomic.AddInt64(&t.active, 1)
	t.mu.Unlock()
	return true
}

// Done marks a request complete. Call exactly once per successful Start.
func (t *Tracker) Done() {
	atomic.AddInt64(&t.active, -1)
	t.wg.Done()
}

// Wait blocks until all admitted requests finish or the timeout elapses.
func (t *Tracker) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrWaitTimeout
	}
}

// Close stops admitting new requests. Requests already in flight continue
// until they call Done.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// Active returns the current number of in-flight requests.
func (t *Tracker) Active() int64 {
	return atomic.LoadInt64(&t.active)
}

// IsClosed reports whether the tracker has been closed.
func (t *Tracker) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}
