// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package latch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/timeout"
)

// MaxCount is the largest count a Latch can hold.
const MaxCount = math.MaxInt64

var (
	// ErrNegativeCount is returned when a latch would be created or set with a count below zero.
	ErrNegativeCount = errors.New("latch count cannot be negative")

	// ErrInvalidAmount is returned when counting down or up by less than one.
	ErrInvalidAmount = errors.New("latch amount must be at least 1")

	// ErrOverflow is returned when counting up would exceed MaxCount.
	ErrOverflow = errors.New("latch count overflow")
)

// Option is a configuration option for a Latch
type Option func(*Latch)

// WithTimeoutPolicy sets the policy applied to AwaitTimeout.
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(l *Latch) {
		l.policy = p
	}
}

// WithClock sets the clock used for AwaitTimeout.  A nil clock means the system clock.
func WithClock(c clock.Interface) Option {
	return func(l *Latch) {
		l.clock = clock.OrSystem(c)
	}
}

// Latch is a bidirectional counting latch.  The zero value is not usable; use New.
//
// The count lives in an atomic word so that Count never blocks.  It is only written under
// a small mutex that also guards the release channel: the channel is closed when the count
// reaches zero and replaced with a fresh one when the count leaves zero.
type Latch struct {
	count atomic.Int64

	lock     sync.Mutex
	released chan struct{}

	clock  clock.Interface
	policy timeout.Policy
}

// New creates a Latch with the given initial count.
func New(initial int64, o ...Option) (*Latch, error) {
	if initial < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, initial)
	}

	l := &Latch{
		released: make(chan struct{}),
		clock:    clock.System(),
	}

	for _, f := range o {
		f(l)
	}

	l.count.Store(initial)
	if initial == 0 {
		close(l.released)
	}

	return l, nil
}

// Must is like New, but panics on error.
func Must(initial int64, o ...Option) *Latch {
	l, err := New(initial, o...)
	if err != nil {
		panic(err)
	}

	return l
}

// done returns the channel that will be closed at the next transition to zero, or an
// already closed channel if the count is currently zero.
func (l *Latch) done() <-chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.released
}

// Done returns a channel that is closed once the count is zero.  The channel reflects the
// latch as of this call; a later re-arm does not reopen it.
func (l *Latch) Done() <-chan struct{} {
	return l.done()
}

// Await blocks until the count is zero or ctx is canceled.
func (l *Latch) Await(ctx context.Context) error {
	select {
	case <-l.done():
		return nil
	case <-ctx.Done():
		return concurrent.Interrupted(ctx.Err())
	}
}

// AwaitTimeout blocks until the count is zero, the timeout elapses, or ctx is canceled.  It returns
// true if the count reached zero.  Under the Extended timeout policy, d is ignored.
func (l *Latch) AwaitTimeout(ctx context.Context, d time.Duration) (bool, error) {
	released := l.done()
	select {
	case <-released:
		return true, nil
	default:
	}

	d = l.policy.Apply(d)
	if d <= 0 {
		return false, nil
	}

	t := l.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-released:
		return true, nil
	case <-t.C():
		return false, nil
	case <-ctx.Done():
		return false, concurrent.Interrupted(ctx.Err())
	}
}

// transition moves the count with next, which receives the current count.  It returns the
// previous and new counts.  Waiters are released on a move to zero and the latch is re-armed on
// a move away from zero.  Every write to the count happens here, under the lock.
func (l *Latch) transition(next func(int64) (int64, error)) (before, after int64, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	before = l.count.Load()
	if after, err = next(before); err != nil {
		return
	}

	l.count.Store(after)

	switch {
	case before != 0 && after == 0:
		close(l.released)

	case before == 0 && after != 0:
		l.released = make(chan struct{})
	}

	return
}

// CountDown decrements the count by one.  It returns true if this call released the waiters.
func (l *Latch) CountDown() bool {
	released, _ := l.CountDownBy(1)
	return released
}

// CountDownBy decrements the count by amount, stopping at zero.  It returns true if this call
// moved the count to zero.  An amount below one is an ErrInvalidAmount.
func (l *Latch) CountDownBy(amount int64) (bool, error) {
	if amount < 1 {
		return false, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	before, after, _ := l.transition(func(c int64) (int64, error) {
		if amount >= c {
			return 0, nil
		}

		return c - amount, nil
	})

	return before != 0 && after == 0, nil
}

// CountUp increments the count by one.  It returns true if this call re-armed the latch.
func (l *Latch) CountUp() (bool, error) {
	return l.CountUpBy(1)
}

// CountUpBy increments the count by amount.  It returns true if the count was zero before this
// call, i.e. this call re-armed the latch.  ErrOverflow is returned, and the count left unchanged,
// when amount > MaxCount - count.
func (l *Latch) CountUpBy(amount int64) (bool, error) {
	if amount < 1 {
		return false, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	before, after, err := l.transition(func(c int64) (int64, error) {
		if amount > MaxCount-c {
			return c, fmt.Errorf("%w: %d + %d", ErrOverflow, c, amount)
		}

		return c + amount, nil
	})

	if err != nil {
		return false, err
	}

	return before == 0 && after != 0, nil
}

// SetCount overwrites the count.  Setting zero releases waiters; setting zero on a latch that is
// already zero changes nothing.
func (l *Latch) SetCount(count int64) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}

	l.transition(func(int64) (int64, error) {
		return count, nil
	})

	return nil
}

// Count returns a snapshot of the count.  Another goroutine may change the count immediately
// after this returns, so the value is suitable for diagnostics and for assertions about a known
// sequence of operations, not for control flow.
func (l *Latch) Count() int64 {
	return l.count.Load()
}

func (l *Latch) String() string {
	return fmt.Sprintf("Latch[count=%d]", l.Count())
}
