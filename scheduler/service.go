// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/metrics/provider"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/async"
	"github.com/xmidt-org/workkit/capacitor"
	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/gate"
	"github.com/xmidt-org/workkit/latch"
	"github.com/xmidt-org/workkit/lock"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/retry"
	"github.com/xmidt-org/workkit/sleeper"
	"github.com/xmidt-org/workkit/timeout"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Option customizes a Service beyond its Config
type Option func(*Service)

// WithClock sets the clock for every timer in the service.  A nil clock means the system clock.
func WithClock(c clock.Interface) Option {
	return func(s *Service) {
		s.clock = clock.OrSystem(c)
	}
}

// WithCapacitor sets the capacitor that debounces thread count changes
func WithCapacitor(c capacitor.Interface) Option {
	return func(s *Service) {
		s.resizer = c
	}
}

// WithCoordination sets the lock under which the worker pool is resized, so that resizes can be
// serialized with other work of the caller.
func WithCoordination(m *lock.Mutex) Option {
	return func(s *Service) {
		s.coord = m
	}
}

// Service runs work on managed pools
type Service struct {
	config  Config
	logger  *zap.Logger
	clock   clock.Interface
	coord   *lock.Mutex
	resizer capacitor.Interface

	measures  *Measures
	gateLock  sync.Mutex
	admission gate.Interface
	stopped   atomic.Bool

	factory   *pool.Factory
	sleeper   *sleeper.Sleeper
	retryer   *retry.Retryer
	workers   *pool.Managed
	scheduled *pool.Scheduled
	started   *latch.Latch

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
	stopErr  error
}

// New builds a Service.  A nil logger means sallust.Default(), and a nil provider discards metrics.
func New(cfg Config, logger *zap.Logger, p provider.Provider, o ...Option) *Service {
	if logger == nil {
		logger = sallust.Default()
	}

	if p == nil {
		p = provider.NewDiscardProvider()
	}

	s := &Service{
		config: cfg,
		logger: logger,
		clock:  clock.System(),
	}

	for _, opt := range o {
		opt(s)
	}

	s.measures = NewMeasures(p)
	s.admission = gate.New(gate.WithClosedGauge(s.measures.GateClosed))

	policy := cfg.TimeoutPolicy()
	if s.coord == nil {
		s.coord = lock.New(
			"scheduler",
			lock.WithLogger(logger),
			lock.WithTimeoutPolicy(policy),
			lock.WithClock(s.clock),
			lock.WithMeasures(lock.NewMeasures(p)),
		)
	}

	if s.resizer == nil {
		s.resizer = capacitor.New(
			capacitor.WithDelay(cfg.resizeDelay()),
			capacitor.WithClock(s.clock),
		)
	}

	s.factory = &pool.Factory{
		Logger:   logger,
		Timeout:  policy,
		Clock:    s.clock,
		Measures: pool.NewMeasures(p),
	}

	// retry delays are never stretched by the timeout policy
	s.sleeper = sleeper.New(
		sleeper.WithClock(s.clock),
		sleeper.WithTimeoutPolicy(timeout.Normal),
	)

	s.retryer = retry.New(
		retry.WithName("scheduler"),
		retry.WithMaxRetries(cfg.Retry.MaxRetries),
		retry.WithDelay(cfg.Retry.Delay),
		retry.WithRetryableFunc(retryable),
		retry.WithSleeper(s.sleeper),
		retry.WithLogger(logger),
		retry.WithMeasures(retry.NewMeasures(p)),
	)

	s.workers = s.factory.NewManaged(cfg.Pool, s.coord)
	s.scheduled = s.factory.NewScheduled(cfg.Scheduled)
	s.started = latch.Must(1, latch.WithTimeoutPolicy(policy), latch.WithClock(s.clock))
	s.ctx, s.cancel = context.WithCancel(sallust.With(context.Background(), logger))
	return s
}

// Start marks this service as started.  Work may be submitted before Start.
func (s *Service) Start() {
	if s.started.CountDown() {
		s.logger.Info("scheduler started",
			zap.Int("threads", s.workers.Current().Threads()),
			zap.Int("scheduledThreads", s.scheduled.Threads()),
			zap.Stringer("timeout", s.config.TimeoutPolicy()),
		)
	}
}

// AwaitStarted waits up to d for Start
func (s *Service) AwaitStarted(ctx context.Context, d time.Duration) (bool, error) {
	return s.started.AwaitTimeout(ctx, d)
}

// Retryer is the retry policy applied by Submit
func (s *Service) Retryer() *retry.Retryer {
	return s.retryer
}

func (s *Service) futureOptions() []async.Option {
	return []async.Option{
		async.WithTimeoutPolicy(s.config.TimeoutPolicy()),
		async.WithClock(s.clock),
	}
}

// admit checks the admission gate, returning ErrPaused or ErrStopped if new work is refused
func (s *Service) admit() error {
	if s.admission.IsOpen() {
		return nil
	}

	reason, err := Paused, ErrPaused
	if s.stopped.Load() {
		reason, err = Stopped, ErrStopped
	}

	s.measures.Refused.With(ReasonLabel, reason).Add(1.0)
	return err
}

// Pause refuses new work until Resume.  Queued, running, and scheduled work is unaffected.
func (s *Service) Pause() {
	s.gateLock.Lock()
	defer s.gateLock.Unlock()

	if !s.stopped.Load() && s.admission.Lower() {
		s.logger.Info("scheduler paused")
	}
}

// Resume admits new work again after Pause.  A stopped service stays stopped.
func (s *Service) Resume() {
	s.gateLock.Lock()
	defer s.gateLock.Unlock()

	if !s.stopped.Load() && s.admission.Raise() {
		s.logger.Info("scheduler resumed")
	}
}

// Submit runs c on the worker pool, retrying failures according to the service's retry configuration.
// Errors wrapped with Permanent are not retried.  Work submitted while paused fails with ErrPaused,
// and work submitted after Stop fails with ErrStopped.
func Submit[T any](ctx context.Context, s *Service, c async.Callable[T]) *async.Future[T] {
	if err := s.admit(); err != nil {
		return async.Failed[T](err, s.futureOptions()...)
	}

	return async.SubmitRetry(ctx, s.workers, s.retryer, c, s.futureOptions()...)
}

// SubmitFunc is Submit for work without a result
func (s *Service) SubmitFunc(ctx context.Context, f func(context.Context) error) *async.Future[struct{}] {
	return Submit(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f(ctx)
	})
}

// Execute runs r on the worker pool without a future or retries.  Work refused by a paused or
// stopped service is dropped and logged.
func (s *Service) Execute(ctx context.Context, r pool.Runnable) {
	if err := s.admit(); err != nil {
		s.logger.Warn("dropping work", zap.Error(err))
		return
	}

	s.workers.Execute(ctx, r)
}

// Schedule runs r on the scheduled pool after delay
func (s *Service) Schedule(ctx context.Context, r pool.Runnable, delay time.Duration) *pool.Task {
	return s.scheduled.Schedule(ctx, r, delay)
}

// ScheduleAtFixedRate runs r on the scheduled pool every period, starting after initial
func (s *Service) ScheduleAtFixedRate(ctx context.Context, r pool.Runnable, initial, period time.Duration) (*pool.Task, error) {
	return s.scheduled.ScheduleAtFixedRate(ctx, r, initial, period)
}

// Resize replaces the worker pool with one of the given size, under the coordination lock
func (s *Service) Resize(ctx context.Context, threads int) error {
	return s.workers.Resize(ctx, threads)
}

// OnThreadsChanged requests a resize.  Requests are debounced, so only the last of a burst applies.
func (s *Service) OnThreadsChanged(threads int) {
	s.logger.Debug("thread count changed", zap.Int("threads", threads))
	s.resizer.Submit(func() {
		if err := s.Resize(s.ctx, threads); err != nil {
			s.logger.Error("resize failed", zap.Int("threads", threads), zap.Error(err))
		}
	})
}

// Stats reports every pool of this service, ordered by name
func (s *Service) Stats() []pool.Stats {
	stats := []pool.Stats{s.workers.Stats(), s.scheduled.Stats()}
	slices.SortFunc(stats, func(a, b pool.Stats) int {
		return strings.Compare(a.Name, b.Name)
	})

	return stats
}

// Stop shuts down both pools in parallel, waiting for queued work to drain.  Pending resizes are
// cancelled and pending retry delays are cut short.  If ctx has no deadline, the configured shutdown
// timeout applies.  Only the first call has any effect; later calls return its result.
func (s *Service) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.gateLock.Lock()
		s.stopped.Store(true)
		s.admission.Lower()
		s.gateLock.Unlock()

		s.resizer.Cancel()
		s.cancel()
		s.sleeper.Signal()

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.config.shutdownTimeout())
			defer cancel()
		}

		pools := map[string]pool.Terminable{
			"workers":   s.workers,
			"scheduled": s.scheduled,
		}

		names := maps.Keys(pools)
		slices.Sort(names)

		g, gctx := errgroup.WithContext(ctx)
		for _, name := range names {
			name, p := name, pools[name]
			g.Go(func() error {
				if err := s.factory.Shutdown(gctx, p); err != nil {
					return fmt.Errorf("pool %s: %w", name, err)
				}

				return nil
			})
		}

		s.stopErr = g.Wait()
		if s.stopErr != nil {
			s.logger.Error("scheduler stopped with errors", zap.Strings("pools", names), zap.Error(s.stopErr))
		} else {
			s.logger.Info("scheduler stopped", zap.Strings("pools", names))
		}
	})

	return s.stopErr
}
