// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/timeout"
	"go.uber.org/zap"
)

// Option is a configuration option for a Mutex
type Option func(*Mutex)

// WithLogger sets the logger used to report acquisition timeouts.  A nil logger means sallust.Default().
func WithLogger(l *zap.Logger) Option {
	return func(m *Mutex) {
		if l != nil {
			m.logger = l
		} else {
			m.logger = sallust.Default()
		}
	}
}

// WithTimeoutPolicy sets the policy applied to every wait passed to TryLock.
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(m *Mutex) {
		m.policy = p
	}
}

// WithClock sets the clock used for acquisition timers.  A nil clock means the system clock.
func WithClock(c clock.Interface) Option {
	return func(m *Mutex) {
		m.clock = clock.OrSystem(c)
	}
}

// WithMeasures sets the instruments this Mutex reports to.  A nil Measures discards all metrics.
func WithMeasures(ms *Measures) Option {
	return func(m *Mutex) {
		if ms != nil {
			m.measures = ms
		} else {
			m.measures = discardMeasures()
		}
	}
}

// Mutex is a named, reentrant, exclusive lock.  The zero value is not usable; use New.
type Mutex struct {
	name string

	// gate is a binary semaphore.  A send acquires, a receive releases.
	gate chan struct{}

	state sync.Mutex
	owner *Owner
	holds int

	logger   *zap.Logger
	policy   timeout.Policy
	clock    clock.Interface
	measures *Measures
}

// New creates a Mutex.  The name is used in errors, logs, and metric labels.
func New(name string, o ...Option) *Mutex {
	m := &Mutex{
		name:     name,
		gate:     make(chan struct{}, 1),
		logger:   sallust.Default(),
		clock:    clock.System(),
		measures: discardMeasures(),
	}

	for _, f := range o {
		f(m)
	}

	return m
}

// Name returns the name this Mutex was created with
func (m *Mutex) Name() string {
	return m.name
}

// reenter increments the hold count if ctx carries the current owner's token.
func (m *Mutex) reenter(ctx context.Context) bool {
	id, ok := token(ctx, m)
	if !ok {
		return false
	}

	m.state.Lock()
	defer m.state.Unlock()
	if m.owner == nil || m.owner.ID != id {
		return false
	}

	m.holds++
	m.measures.Acquire.With(LockLabel, m.name, OutcomeLabel, ReenteredOutcome).Add(1.0)
	return true
}

// acquired records ownership after the gate has been taken.
func (m *Mutex) acquired(ctx context.Context, start time.Time) context.Context {
	o := &Owner{
		ID:       ksuid.New(),
		Name:     OwnerName(ctx),
		Acquired: m.clock.Now(),
		Caller:   caller(),
	}

	m.state.Lock()
	m.owner = o
	m.holds = 1
	m.state.Unlock()

	m.measures.Acquire.With(LockLabel, m.name, OutcomeLabel, AcquiredOutcome).Add(1.0)
	m.measures.Wait.With(LockLabel, m.name).Observe(o.Acquired.Sub(start).Seconds())
	m.measures.Held.With(LockLabel, m.name).Set(1.0)
	return context.WithValue(ctx, tokenKey{m}, o.ID)
}

func (m *Mutex) interrupted(ctx context.Context) error {
	m.measures.Acquire.With(LockLabel, m.name, OutcomeLabel, InterruptedOutcome).Add(1.0)
	return concurrent.Interrupted(ctx.Err())
}

// Lock acquires this Mutex, waiting as long as ctx allows.  The returned context must be used
// for any nested acquisition by the same logical holder.
func (m *Mutex) Lock(ctx context.Context) (context.Context, error) {
	if m.reenter(ctx) {
		return ctx, nil
	}

	if err := concurrent.CheckInterrupted(ctx); err != nil {
		return ctx, m.interrupted(ctx)
	}

	start := m.clock.Now()
	select {
	case m.gate <- struct{}{}:
		return m.acquired(ctx, start), nil
	case <-ctx.Done():
		return ctx, m.interrupted(ctx)
	}
}

// TryLock attempts to acquire this Mutex within wait, after the timeout policy has been applied.
// A nonpositive wait makes a single attempt.  On timeout, the returned error is an *AcquireTimeoutError.
// If ctx is canceled first, the returned error is an interruption.
func (m *Mutex) TryLock(ctx context.Context, wait time.Duration) (context.Context, error) {
	if m.reenter(ctx) {
		return ctx, nil
	}

	if err := concurrent.CheckInterrupted(ctx); err != nil {
		return ctx, m.interrupted(ctx)
	}

	start := m.clock.Now()
	select {
	case m.gate <- struct{}{}:
		return m.acquired(ctx, start), nil
	default:
	}

	wait = m.policy.Apply(wait)
	if wait > 0 {
		t := m.clock.NewTimer(wait)
		defer t.Stop()

		select {
		case m.gate <- struct{}{}:
			return m.acquired(ctx, start), nil
		case <-t.C():
		case <-ctx.Done():
			return ctx, m.interrupted(ctx)
		}
	}

	return ctx, m.timedOut(wait)
}

func (m *Mutex) timedOut(wait time.Duration) error {
	m.measures.Acquire.With(LockLabel, m.name, OutcomeLabel, TimeoutOutcome).Add(1.0)

	err := &AcquireTimeoutError{
		Lock: m.name,
		Wait: wait,
	}

	if owner, ok := m.Owner(); ok {
		err.Owner = owner
		err.Held = true
		m.logger.Debug(
			"lock acquisition timed out",
			zap.String("lock", m.name),
			zap.Duration("wait", wait),
			zap.Stringer("owner", owner.ID),
			zap.String("ownerName", owner.Name),
			zap.String("ownerCaller", owner.Caller),
			zap.Duration("heldFor", m.clock.Since(owner.Acquired)),
		)
	} else {
		m.logger.Debug("lock acquisition timed out", zap.String("lock", m.name), zap.Duration("wait", wait))
	}

	return err
}

// Unlock releases one hold.  The Mutex becomes available when the hold count reaches zero.
// As with sync.Mutex, unlocking a Mutex that is not locked is a run-time error.
func (m *Mutex) Unlock() {
	m.state.Lock()
	defer m.state.Unlock()

	if m.holds < 1 {
		panic("lock: unlock of unlocked Mutex " + m.name)
	}

	m.holds--
	if m.holds == 0 {
		m.owner = nil
		m.measures.Held.With(LockLabel, m.name).Set(0.0)
		<-m.gate
	}
}

// Locked reports whether any goroutine currently holds this Mutex.  The result is advisory.
func (m *Mutex) Locked() bool {
	m.state.Lock()
	defer m.state.Unlock()
	return m.holds > 0
}

// HoldCount returns the current number of holds, counting reentrant acquisitions.
func (m *Mutex) HoldCount() int {
	m.state.Lock()
	defer m.state.Unlock()
	return m.holds
}

// Owner returns a copy of the current owner, if any.
func (m *Mutex) Owner() (Owner, bool) {
	m.state.Lock()
	defer m.state.Unlock()
	if m.owner == nil {
		return Owner{}, false
	}

	return *m.owner, true
}

// HeldBy tests if ctx carries the token of the current owner.
func (m *Mutex) HeldBy(ctx context.Context) bool {
	id, ok := token(ctx, m)
	if !ok {
		return false
	}

	m.state.Lock()
	defer m.state.Unlock()
	return m.owner != nil && m.owner.ID == id
}
