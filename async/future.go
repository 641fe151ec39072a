// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package async

import (
	"context"
	"sync"
	"time"

	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/timeout"
)

// Option is a configuration option for a Future
type Option func(*config)

type config struct {
	policy timeout.Policy
	clock  clock.Interface
}

// WithTimeoutPolicy sets the policy applied to the duration passed to GetTimeout
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithClock sets the clock used by GetTimeout.  A nil clock means the system clock.
func WithClock(cl clock.Interface) Option {
	return func(c *config) {
		c.clock = clock.OrSystem(cl)
	}
}

// Future is the eventual outcome of asynchronous work
type Future[T any] struct {
	config

	once  sync.Once
	done  chan struct{}
	value T
	err   error

	lock      sync.Mutex
	cancelled bool
	interrupt context.CancelFunc
}

func newFuture[T any](o []Option) *Future[T] {
	f := &Future[T]{
		config: config{clock: clock.System()},
		done:   make(chan struct{}),
	}

	for _, opt := range o {
		opt(&f.config)
	}

	return f
}

// Completed returns a Future that has already succeeded with v
func Completed[T any](v T, o ...Option) *Future[T] {
	f := newFuture[T](o)
	f.complete(v, nil)
	return f
}

// Failed returns a Future that has already failed with err, unchanged
func Failed[T any](err error, o ...Option) *Future[T] {
	f := newFuture[T](o)
	var zero T
	f.complete(zero, err)
	return f
}

// complete records the outcome.  Only the first call has any effect.
func (f *Future[T]) complete(v T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
		completed = true
	})

	return completed
}

// Done returns a channel that is closed when this Future completes
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone tests if this Future has completed, in any way
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cancel completes this Future with ErrCancelled if it has not completed yet.  Work that has not
// started will not start, and the context of work that is running is canceled.  This method returns
// true if this call cancelled the Future.
func (f *Future[T]) Cancel() bool {
	f.lock.Lock()
	defer f.lock.Unlock()

	var zero T
	if !f.complete(zero, ErrCancelled) {
		return false
	}

	f.cancelled = true
	if f.interrupt != nil {
		f.interrupt()
	}

	return true
}

// Cancelled tests if Cancel completed this Future
func (f *Future[T]) Cancelled() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.cancelled
}

// started records the cancel function of the running work.  It returns false if the
// Future was cancelled first, in which case the work must not run.
func (f *Future[T]) started(interrupt context.CancelFunc) bool {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.cancelled {
		return false
	}

	f.interrupt = interrupt
	return true
}

func (f *Future[T]) result() (T, error) {
	return f.value, f.err
}

// Get waits for this Future to complete.  If ctx is canceled first, the returned error is an interruption.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	default:
	}

	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, concurrent.Interrupted(ctx.Err())
	}
}

// GetTimeout is like Get, but gives up after d with ErrTimeout.  The timeout policy is applied to d.
func (f *Future[T]) GetTimeout(ctx context.Context, d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.result()
	default:
	}

	var zero T
	if d = f.policy.Apply(d); d <= 0 {
		return zero, ErrTimeout
	}

	t := f.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-f.done:
		return f.result()
	case <-t.C():
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, concurrent.Interrupted(ctx.Err())
	}
}
