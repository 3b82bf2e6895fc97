package shutdown

import (
	"context"
	"sort"
	"sync"

	"replydesk/core"
)

// hook holds a registered shutdown function with metadata.
type hook struct {
	name     string
	fn       core.ShutdownFunc
	priority int // lower = earlier execution
}

// Registry maintains an ordered collection of shutdown hooks. Lower
// priority values run first. All hooks run even when some fail; errors are
// collected and returned together.
type Registry struct {
	mu     sync.Mutex
	hooks  []hook
	closed bool
}

// NewRegistry creates a Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{hooks: make([]hook, 0)}
}

// Register adds a shutdown hook. Registration after Shutdown has run is a
// no-op.
//
// Typical priority ranges:
//   - 0-9: flush logs
//   - 10-19: stop accepting HTTP connections
//   - 20-29: stop background workers (rate window cleanup)
//   - 30-39: close the store
func (r *Registry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.hooks = append(r.hooks, hook{name: name, fn: fn, priority: priority})
}

// Shutdown runs all hooks in priority order with the provided context and
// returns the errors of the hooks that failed. After Shutdown the registry
// is closed.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sorted := make([]hook, len(r.hooks))
	copy(sorted, r.hooks)
	r.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	var errs []error
	for _, h := range sorted {
		if err := h.fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Names returns the hook names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]hook, len(r.hooks))
	copy(sorted, r.hooks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	names := make([]string, len(sorted))
	for i, h := range sorted {
		names[i] = h.name
	}
	return names
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

// IsClosed reports whether Shutdown has been called.
func (r *Registry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
