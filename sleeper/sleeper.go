// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sleeper

import (
	"context"
	"sync"
	"time"

	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/timeout"
)

// Option is a configuration option for a Sleeper
type Option func(*Sleeper)

// WithClock sets the clock used for timers.  A nil clock means the system clock.
func WithClock(c clock.Interface) Option {
	return func(s *Sleeper) {
		s.clock = clock.OrSystem(c)
	}
}

// WithTimeoutPolicy sets the policy applied to the timeouts passed to Await.
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(s *Sleeper) {
		s.policy = p
	}
}

// Sleeper is a lock and signal pair.  The signal channel is closed to wake every goroutine
// parked at that moment, then replaced for subsequent waiters.
type Sleeper struct {
	lock   sync.Mutex
	signal chan struct{}

	clock  clock.Interface
	policy timeout.Policy
}

// New constructs a Sleeper.  By default, the system clock and the Normal timeout policy are used.
func New(o ...Option) *Sleeper {
	s := &Sleeper{
		signal: make(chan struct{}),
		clock:  clock.System(),
	}

	for _, f := range o {
		f(s)
	}

	return s
}

func (s *Sleeper) current() <-chan struct{} {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.signal
}

// Await parks the caller for at most d.  It returns true if Signal was called while parked and
// false if the timeout elapsed.  A nonpositive d returns false immediately without checking ctx.
//
// If ctx is canceled first, the returned error is a concurrent.InterruptedError.  It is up to the
// caller to propagate it or to log it with concurrent.LogInterrupted.
func (s *Sleeper) Await(ctx context.Context, d time.Duration) (bool, error) {
	if d <= 0 {
		return false, nil
	}

	if err := concurrent.CheckInterrupted(ctx); err != nil {
		return false, err
	}

	signal := s.current()
	t := s.clock.NewTimer(s.policy.Apply(d))
	defer t.Stop()

	select {
	case <-signal:
		return true, nil
	case <-t.C():
		return false, nil
	case <-ctx.Done():
		return false, concurrent.Interrupted(ctx.Err())
	}
}

// Signal wakes every goroutine currently parked in Await.  Goroutines that call Await
// afterwards are not affected.
func (s *Sleeper) Signal() {
	s.lock.Lock()
	close(s.signal)
	s.signal = make(chan struct{})
	s.lock.Unlock()
}

// Sleep parks the caller for d using a private Sleeper that nothing else can signal.  The timeout
// policy is always Normal here, so a pure delay is never stretched.  The only possible error is an
// interruption.
func Sleep(ctx context.Context, d time.Duration, o ...Option) error {
	s := New(o...)
	s.policy = timeout.Normal
	_, err := s.Await(ctx, d)
	return err
}
