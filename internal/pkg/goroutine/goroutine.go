// Package goroutine runs fire-and-forget work, such as orphaned object cleanup,
// on a bounded pool that the application drains at shutdown.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/shandysiswandi/ktvs/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is multiplied by the CPU count when no limit is configured.
const DefaultMaxGoroutine int = 100

// Manager never blocks the caller: a task that finds the pool full or
// drained is refused and counted. Task errors surface from Wait.
type Manager struct {
	slots chan struct{}
	wg    sync.WaitGroup

	// gate is held for reading while a task is admitted and for writing by Wait,
	// so no task can slip in after Wait starts draining.
	gate   sync.RWMutex
	closed bool

	errMu sync.Mutex
	errs  []error

	inFlight atomic.Int64
	dropped  atomic.Int64
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, limit)}
}

// Go reports whether task was admitted.
func (m *Manager) Go(ctx context.Context, task func(ctx context.Context) error) bool {
	if m == nil {
		return false
	}

	if !m.admit() {
		m.dropped.Inc()
		slog.WarnContext(ctx, "background task refused", "in_flight", m.inFlight.Load())
		return false
	}

	go m.run(ctx, task)
	return true
}

func (m *Manager) admit() bool {
	m.gate.RLock()
	defer m.gate.RUnlock()

	if m.closed {
		return false
	}

	select {
	case m.slots <- struct{}{}:
		m.inFlight.Inc()
		m.wg.Add(1)
		return true
	default:
		return false
	}
}

func (m *Manager) run(ctx context.Context, task func(ctx context.Context) error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stacktrace.LogPanic(ctx, "background task panicked", rvr)
		}
		<-m.slots
		m.inFlight.Dec()
		m.wg.Done()
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "background task skipped", "because", err)
		return
	}

	if err := task(ctx); err != nil {
		m.errMu.Lock()
		m.errs = append(m.errs, err)
		m.errMu.Unlock()
	}
}

func (m *Manager) InFlight() int64 { return m.inFlight.Load() }

func (m *Manager) Dropped() int64 { return m.dropped.Load() }

// Wait stops admitting tasks, drains the running ones and joins their errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.gate.Lock()
	m.closed = true
	m.gate.Unlock()

	m.wg.Wait()

	m.errMu.Lock()
	defer m.errMu.Unlock()
	return errors.Join(m.errs...)
}
