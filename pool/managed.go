// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/workkit/lock"
	"go.uber.org/zap"
)

// ResizeWait is how long Resize waits for the coordination lock, subject to the timeout policy
const ResizeWait = 5 * time.Second

// ErrStopped is returned when resizing a managed pool that has been shut down
var ErrStopped = errors.New("the managed pool has been shut down")

// State is the lifecycle state of a Managed pool
type State int32

const (
	Running State = iota
	Draining
	Rebuilding
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Rebuilding:
		return "rebuilding"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Managed is a fixed pool that can be resized while in use.  A resize moves through
// Running, Draining, Rebuilding and back to Running while holding the coordination lock:
// queued tasks are drained out of the current pool, a replacement is built with the new size,
// and the drained tasks are resubmitted in their original order.  Tasks that are already
// running finish on the old pool.
type Managed struct {
	factory *Factory
	coord   *lock.Mutex

	// swap guards current.  Execute holds it shared, a resize holds it exclusively.
	swap    sync.RWMutex
	current *Pool
	options Options

	state atomic.Int32
}

// NewManaged builds a managed pool.  The coordination lock serializes resizes and may be shared
// with other code that must not overlap a resize.  A nil lock means a private one.
func (f *Factory) NewManaged(o Options, coord *lock.Mutex) *Managed {
	if coord == nil {
		coord = lock.New(o.name()+"-resize", lock.WithLogger(f.logger()), lock.WithTimeoutPolicy(f.timeout()), lock.WithClock(f.clock()))
	}

	return &Managed{
		factory: f,
		coord:   coord,
		current: f.NewFixed(o),
		options: o,
	}
}

// State returns the current lifecycle state
func (m *Managed) State() State {
	return State(m.state.Load())
}

// Current returns the pool currently accepting tasks
func (m *Managed) Current() *Pool {
	m.swap.RLock()
	defer m.swap.RUnlock()
	return m.current
}

// Execute hands r to the current pool
func (m *Managed) Execute(ctx context.Context, r Runnable) {
	m.swap.RLock()
	defer m.swap.RUnlock()
	m.current.Execute(ctx, r)
}

// Resize replaces the current pool with one of the given thread count, subject to the same
// corrections as NewFixed.  Resizing to the current size does nothing.  The wait for the
// coordination lock is ResizeWait, subject to that lock's timeout policy.
func (m *Managed) Resize(ctx context.Context, threads int) error {
	_, err := lock.Do(ctx, m.coord, ResizeWait, func(context.Context) error {
		return m.resize(threads)
	}, lock.Declare(ErrStopped))

	return err
}

func (m *Managed) resize(threads int) error {
	m.swap.Lock()
	defer m.swap.Unlock()

	if m.State() == Stopped {
		return ErrStopped
	}

	o := m.options
	o.Threads = threads
	if m.factory.threads(o) == m.current.Threads() {
		return nil
	}

	old := m.current
	logger := old.logger

	m.state.Store(int32(Draining))
	drained := old.drain()
	old.Shutdown()

	m.state.Store(int32(Rebuilding))
	replacement := m.factory.NewFixed(o)
	for _, r := range drained {
		replacement.resubmit(r)
	}

	m.current = replacement
	m.options = o
	m.state.Store(int32(Running))

	replacement.measures.resized()
	logger.Info("resized pool", zap.Int("from", old.Threads()), zap.Int("to", replacement.Threads()), zap.Int("resubmitted", len(drained)))
	return nil
}

// Shutdown begins an orderly shutdown of the current pool.  No further resizes are possible.
func (m *Managed) Shutdown() {
	m.swap.RLock()
	defer m.swap.RUnlock()

	m.state.Store(int32(Stopped))
	m.current.Shutdown()
}

// ShutdownNow forcibly terminates the current pool
func (m *Managed) ShutdownNow() []Runnable {
	m.swap.RLock()
	defer m.swap.RUnlock()

	m.state.Store(int32(Stopped))
	return m.current.ShutdownNow()
}

// AwaitTermination waits for the current pool to terminate
func (m *Managed) AwaitTermination(ctx context.Context, d time.Duration) (bool, error) {
	return m.Current().AwaitTermination(ctx, d)
}

// IsShutdown tests if this managed pool has been shut down
func (m *Managed) IsShutdown() bool {
	return m.State() == Stopped
}

// Reset clears the queue of the current pool
func (m *Managed) Reset() int {
	return m.Current().Reset()
}

// Stats returns the statistics of the current pool
func (m *Managed) Stats() Stats {
	return m.Current().Stats()
}
