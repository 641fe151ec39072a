// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidPeriod is returned when a periodic task is scheduled with a nonpositive period
var ErrInvalidPeriod = errors.New("the period must be positive")

// Task is the handle for a delayed or periodic task
type Task struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
	stop      chan struct{}
	running   atomic.Bool
}

func newTask() *Task {
	return &Task{
		done: make(chan struct{}),
		stop: make(chan struct{}),
	}
}

// Cancel prevents any further runs of this task.  A run already in progress is not affected.
// This method returns true if this call cancelled the task.
func (t *Task) Cancel() bool {
	if t.cancelled.CompareAndSwap(false, true) {
		close(t.stop)
		return true
	}

	return false
}

// Cancelled tests if this task was cancelled, either directly or by a shutdown
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel that is closed once this task will never run again
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) finish() {
	t.once.Do(func() { close(t.done) })
}

// taskRun is a single run of a scheduled task.  It does nothing if the task was cancelled
// while this run sat in the queue.
type taskRun struct {
	task     *Task
	delegate Runnable
	last     bool
}

func (tr taskRun) Run(ctx context.Context) {
	defer tr.task.running.Store(false)
	if tr.last {
		defer tr.task.finish()
	}

	if !tr.task.Cancelled() {
		tr.delegate.Run(ctx)
	} else if tr.last {
		abandon(tr.delegate, ErrTaskCancelled)
	}
}

// Abandoned passes abandonment on to the delegate of a one-shot task.  Periodic runs are not
// abandoned, since a periodic delegate may already have run.
func (tr taskRun) Abandoned(err error) {
	tr.task.Cancel()
	tr.task.finish()
	if tr.last {
		abandon(tr.delegate, err)
	}
}

// Scheduled is a pool for delayed and periodic work.  Its queue is unbounded, so tasks are only
// ever rejected after shutdown.  Delayed and periodic tasks that are still waiting on a timer
// when the pool shuts down are cancelled.
type Scheduled struct {
	*Pool

	lock    sync.Mutex
	pending map[*Task]struct{}
}

// NewScheduled builds a scheduled pool with o.Threads workers.  o.QueueCapacity and o.Headroom are ignored.
func (f *Factory) NewScheduled(o Options) *Scheduled {
	threads := f.threads(o)
	s := &Scheduled{
		Pool: newPool(poolConfig{
			name:      o.name(),
			core:      threads,
			max:       threads,
			keepAlive: o.keepAlive(),
			policy:    f.policy(o),
			limiter:   f.limiter(o),
			logger:    f.logger(),
			clock:     f.clock(),
			measures:  f.measures(),
		}),
		pending: make(map[*Task]struct{}),
	}

	s.logger.Debug("created scheduled pool", zap.Int("threads", threads))
	return s
}

func (s *Scheduled) register(t *Task) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Pool.IsShutdown() {
		return false
	}

	s.pending[t] = struct{}{}
	s.measures.pending(len(s.pending))
	return true
}

func (s *Scheduled) unregister(t *Task) {
	s.lock.Lock()
	delete(s.pending, t)
	s.measures.pending(len(s.pending))
	s.lock.Unlock()
}

// Pending returns the number of delayed or periodic tasks waiting on a timer
func (s *Scheduled) Pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.pending)
}

// Schedule runs r once, after delay.  A nonpositive delay executes r immediately.  If the task
// is cancelled before r runs, r is abandoned with ErrTaskCancelled, or ErrShutdown when the
// cancellation came from a shutdown.
func (s *Scheduled) Schedule(ctx context.Context, r Runnable, delay time.Duration) *Task {
	t := newTask()
	if !s.register(t) {
		t.Cancel()
		t.finish()
		s.reject(ctx, r)
		return t
	}

	go func() {
		defer s.unregister(t)

		timer := s.clock.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C():
			t.running.Store(true)
			s.Pool.Execute(ctx, taskRun{task: t, delegate: r, last: true})
		case <-t.stop:
			t.finish()
			if s.Pool.IsShutdown() {
				abandon(r, ErrShutdown)
			} else {
				abandon(r, ErrTaskCancelled)
			}
		}
	}()

	return t
}

// ScheduleAtFixedRate runs r after initial, then every period.  A run that is still in progress
// when the next one is due causes that next run to be skipped, so runs never overlap.
func (s *Scheduled) ScheduleAtFixedRate(ctx context.Context, r Runnable, initial, period time.Duration) (*Task, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}

	t := newTask()
	if !s.register(t) {
		t.Cancel()
		t.finish()
		s.reject(ctx, r)
		return t, nil
	}

	go func() {
		defer t.finish()
		defer s.unregister(t)

		timer := s.clock.NewTimer(initial)
		defer timer.Stop()

		select {
		case <-timer.C():
		case <-t.stop:
			return
		}

		ticker := s.clock.NewTicker(period)
		defer ticker.Stop()

		for {
			if t.running.CompareAndSwap(false, true) {
				s.Pool.Execute(ctx, taskRun{task: t, delegate: r})
			} else {
				s.logger.Debug("periodic task still running, skipping this run")
			}

			select {
			case <-ticker.C():
			case <-t.stop:
				return
			}
		}
	}()

	return t, nil
}

// cancelPending cancels every task still waiting on a timer
func (s *Scheduled) cancelPending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	for t := range s.pending {
		t.Cancel()
	}

	return len(s.pending)
}

// Shutdown cancels all delayed and periodic tasks, then shuts down the underlying pool.
// Tasks already queued still run.
func (s *Scheduled) Shutdown() {
	s.lock.Lock()
	s.Pool.Shutdown()
	s.lock.Unlock()

	if n := s.cancelPending(); n > 0 {
		s.logger.Info("cancelled scheduled tasks at shutdown", zap.Int("count", n))
	}
}

// ShutdownNow cancels all delayed and periodic tasks and forcibly terminates the underlying pool
func (s *Scheduled) ShutdownNow() []Runnable {
	s.lock.Lock()
	drained := s.Pool.ShutdownNow()
	s.lock.Unlock()

	s.cancelPending()
	for _, r := range drained {
		if tr, ok := r.(taskRun); ok {
			tr.task.Cancel()
			tr.task.finish()
		}
	}

	return drained
}
