package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"replydesk/core"

	"go.uber.org/zap"
)

// Manager is the shutdown coordination organism composing:
//   - Tracker: in-flight request draining
//   - Registry: ordered cleanup hooks
//   - SignalCounter: second signal forces exit
//
// Usage:
//
//	manager := shutdown.NewManager(logger.Zap())
//	manager.Register("store", 30, func(ctx context.Context) error {
//	    return kv.Close()
//	})
//	manager.Start()
//	<-manager.Context().Done()
//	manager.Shutdown()
type Manager struct {
	logger   *zap.Logger
	timeout  time.Duration
	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *Tracker
	registry *Registry
	signals  *SignalCounter

	sigChan chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the total shutdown timeout. Default is 30 seconds,
// which comfortably covers one in-flight completion at the configured AI
// timeout plus cleanup.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// NewManager creates a Manager. The logger is required.
func NewManager(logger *zap.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger,
		timeout:  30 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewTracker(),
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("Received second signal, forcing immediate shutdown")
		os.Exit(core.ExitCodeError)
	})

	return m
}

// Context returns the context cancelled when shutdown begins. Components
// use it to stop background work such as the rate window cleanup ticker.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup hook. Lower priority values run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown hook",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start begins listening for SIGINT and SIGTERM. The first signal cancels
// the managed context; a second signal forces exit. Safe to call more than
// once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range m.sigChan {
			count := m.signals.Increment()
			if count == 1 {
				m.logger.Info("Received shutdown signal, initiating graceful shutdown",
					zap.String("signal", sig.String()),
				)
				m.cancel()
			}
		}
	}()

	m.logger.Info("Shutdown manager started, listening for signals")
}

// Shutdown drains in-flight requests and runs the registered hooks:
//  1. Close the tracker so new requests are rejected
//  2. Wait for in-flight requests, bounded by the timeout
//  3. Run hooks in priority order with the remaining time
//
// Idempotent; later calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.mu.Unlock()

	startTime := time.Now()
	m.logger.Info("Initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Int("registered_hooks", m.registry.Count()),
	)

	m.tracker.Close()

	if active := m.tracker.Active(); active > 0 {
		m.logger.Info("Waiting for in-flight requests",
			zap.Int64("active", active),
		)
	}
	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warn("Timeout waiting for in-flight requests",
			zap.Duration("waited", time.Since(startTime)),
			zap.Int64("remaining", m.tracker.Active()),
		)
	}

	remaining := m.timeout - time.Since(startTime)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	m.logger.Info("Running cleanup hooks",
		zap.Strings("hooks", m.registry.Names()),
	)
	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("Cleanup hook failed", zap.Error(err))
	}

	signal.Stop(m.sigChan)
	close(m.sigChan)

	duration := time.Since(startTime)
	if len(errs) > 0 {
		m.logger.Error("Shutdown completed with errors",
			zap.Duration("duration", duration),
			zap.Int("error_count", len(errs)),
		)
		return fmt.Errorf("shutdown had %d errors", len(errs))
	}
	m.logger.Info("Graceful shutdown completed", zap.Duration("duration", duration))
	return nil
}

// Wait blocks until the managed context is cancelled.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}

// WrapRequest runs fn while counting it as in flight. When shutdown has
// begun, fn is not run and ErrTrackerClosed is returned so the HTTP layer
// can answer 503.
func (m *Manager) WrapRequest(ctx context.Context, name string, fn func(context.Context) error) error {
	if !m.tracker.Start() {
		m.logger.Debug("Request rejected, shutting down",
			zap.String("operation", name),
		)
		return ErrTrackerClosed
	}
	defer m.tracker.Done()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return context.Canceled
	default:
	}

	return fn(ctx)
}

// ActiveRequests returns the count of in-flight requests.
func (m *Manager) ActiveRequests() int64 {
	return m.tracker.Active()
}

// IsShuttingDown reports whether shutdown has been initiated.
func (m *Manager) IsShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown || m.tracker.IsClosed()
}
