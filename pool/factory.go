// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/timeout"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DrainTimeout is how long Factory.Shutdown waits for queued and running tasks before forcing termination
const DrainTimeout = 500 * time.Millisecond

// Terminable is the shutdown contract shared by every pool flavor
type Terminable interface {
	Shutdown()
	ShutdownNow() []Runnable
	AwaitTermination(context.Context, time.Duration) (bool, error)
	IsShutdown() bool
}

// Resettable is implemented by pools whose queue can be cleared
type Resettable interface {
	Reset() int
}

// Factory builds pools and shuts them down.  The zero value is usable: it logs with
// sallust.Default(), uses the system clock, the Normal timeout policy, and discards metrics.
type Factory struct {
	// Logger is the base logger for every pool
	Logger *zap.Logger

	// Timeout is applied to DrainTimeout and to resize lock waits
	Timeout timeout.Policy

	// Clock drives keepalive and scheduling timers
	Clock clock.Interface

	// Measures is shared by every pool, each labeled with its own name
	Measures *Measures
}

func (f *Factory) logger() *zap.Logger {
	if f != nil && f.Logger != nil {
		return f.Logger
	}

	return sallust.Default()
}

func (f *Factory) timeout() timeout.Policy {
	if f != nil {
		return f.Timeout
	}

	return timeout.Normal
}

func (f *Factory) clock() clock.Interface {
	if f != nil {
		return clock.OrSystem(f.Clock)
	}

	return clock.System()
}

func (f *Factory) measures() *Measures {
	if f != nil && f.Measures != nil {
		return f.Measures
	}

	return discardMeasures()
}

// threads applies the thread count corrections, logging each one
func (f *Factory) threads(o Options) int {
	switch {
	case o.Threads < 1:
		f.logger().Warn("nonpositive thread count, using 1", zap.String("pool", o.name()), zap.Int("threads", o.Threads))
		return 1

	case o.Threads > MaxThreads:
		f.logger().Warn("thread count too large, using the maximum", zap.String("pool", o.name()), zap.Int("threads", o.Threads), zap.Int("max", MaxThreads))
		return MaxThreads

	default:
		return o.Threads
	}
}

func (f *Factory) policy(o Options) RejectionPolicy {
	p, err := ParsePolicy(o.Policy)
	if err != nil {
		f.logger().Warn("unknown rejection policy, using caller-runs", zap.String("pool", o.name()), zap.Error(err))
		return CallerRuns()
	}

	return p
}

func (f *Factory) limiter(o Options) *rate.Limiter {
	if o.RateLimit > 0 {
		return rate.NewLimiter(rate.Limit(o.RateLimit), o.rateBurst())
	}

	return nil
}

// NewFixed builds a pool with o.Threads core workers and a bounded queue
func (f *Factory) NewFixed(o Options) *Pool {
	threads := f.threads(o)
	p := newPool(poolConfig{
		name:      o.name(),
		core:      threads,
		max:       threads + o.headroom(),
		capacity:  o.queueCapacity(),
		keepAlive: o.keepAlive(),
		policy:    f.policy(o),
		limiter:   f.limiter(o),
		logger:    f.logger(),
		clock:     f.clock(),
		measures:  f.measures(),
	})

	p.logger.Debug("created fixed pool", zap.Int("threads", p.core), zap.Int("max", p.max), zap.Int("queueCapacity", o.queueCapacity()), zap.String("policy", fmt.Sprint(p.policy)))
	return p
}

// Shutdown runs the bounded shutdown sequence: an orderly shutdown, a wait of DrainTimeout
// (subject to the timeout policy) for queued and running tasks, then a forced termination if
// anything is left.  Tasks drained by a forced termination are abandoned with ErrShutdown.
// If ctx is canceled during the wait, the pool is forcibly terminated at once and the
// interruption is returned.  Calling this on a pool that is already shut down does nothing.
func (f *Factory) Shutdown(ctx context.Context, p Terminable) error {
	if p.IsShutdown() {
		return nil
	}

	logger := f.logger()
	p.Shutdown()

	drained, err := p.AwaitTermination(ctx, f.timeout().Apply(DrainTimeout))
	if err != nil {
		dropped := abandonAll(p.ShutdownNow())
		concurrent.LogInterrupted(logger, err, zap.Int("dropped", len(dropped)))
		return err
	}

	if !drained {
		dropped := abandonAll(p.ShutdownNow())
		logger.Warn("pool did not drain in time, forcing termination", zap.Duration("timeout", f.timeout().Apply(DrainTimeout)), zap.Int("dropped", len(dropped)))
	}

	return nil
}

// abandonAll abandons tasks drained by a forced shutdown
func abandonAll(drained []Runnable) []Runnable {
	for _, r := range drained {
		abandon(r, ErrShutdown)
	}

	return drained
}

// Reset clears the queue of p.  This is best effort and never fails.
func (f *Factory) Reset(p Resettable) int {
	return p.Reset()
}
