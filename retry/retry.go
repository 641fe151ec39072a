// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/sleeper"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the number of retries allowed after the first attempt
	DefaultMaxRetries = 3

	// DefaultDelay is the fixed time between attempts
	DefaultDelay = 100 * time.Millisecond

	// DefaultName is used for log output and metric labels when no name is configured
	DefaultName = "default"
)

// OnRetryFunc is invoked just before the delay preceding each retry.  Attempt is the
// 1-based number of the attempt that just failed.
type OnRetryFunc func(attempt int, err error, delay time.Duration)

// Option is a configuration option for a Retryer
type Option func(*Retryer)

// WithName sets the name used in logs and as the metric label.
func WithName(n string) Option {
	return func(r *Retryer) {
		if len(n) > 0 {
			r.name = n
		} else {
			r.name = DefaultName
		}
	}
}

// WithRetryable adds errors that indicate a transient failure.  Matching uses errors.Is.
func WithRetryable(errs ...error) Option {
	return func(r *Retryer) {
		for _, target := range errs {
			target := target
			r.retryable = append(r.retryable, func(err error) bool {
				return errors.Is(err, target)
			})
		}
	}
}

// WithRetryableFunc adds an arbitrary predicate for transient failures.
func WithRetryableFunc(f func(error) bool) Option {
	return func(r *Retryer) {
		if f != nil {
			r.retryable = append(r.retryable, f)
		}
	}
}

// WithRetryableAs marks every error that errors.As can convert to E as transient.
func WithRetryableAs[E error]() Option {
	return WithRetryableFunc(func(err error) bool {
		var target E
		return errors.As(err, &target)
	})
}

// WithMaxRetries sets the number of retries after the first attempt.  Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(r *Retryer) {
		if n > 0 {
			r.maxRetries = n
		} else {
			r.maxRetries = 0
		}
	}
}

// WithDelay sets the fixed delay between attempts.  Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(r *Retryer) {
		if d > 0 {
			r.delay = d
		} else {
			r.delay = 0
		}
	}
}

// WithSleeper sets the Sleeper used to wait between attempts.  Signaling that Sleeper hurries
// any pending retry.  A nil Sleeper means a private one with a Normal timeout policy.
func WithSleeper(s *sleeper.Sleeper) Option {
	return func(r *Retryer) {
		if s != nil {
			r.sleeper = s
		} else {
			r.sleeper = sleeper.New()
		}
	}
}

// WithLogger sets the logger.  A nil logger means sallust.Default().
func WithLogger(l *zap.Logger) Option {
	return func(r *Retryer) {
		if l != nil {
			r.logger = l
		} else {
			r.logger = sallust.Default()
		}
	}
}

// WithMeasures sets the counters this Retryer reports to.  A nil Measures discards all metrics.
func WithMeasures(m *Measures) Option {
	return func(r *Retryer) {
		if m != nil {
			r.measures = m
		} else {
			r.measures = discardMeasures()
		}
	}
}

// WithOnRetry sets a hook invoked before each retry
func WithOnRetry(f OnRetryFunc) Option {
	return func(r *Retryer) {
		r.onRetry = f
	}
}

// Retryer holds an immutable retry configuration.  It is safe for concurrent use, and each
// run keeps its own attempt count.
type Retryer struct {
	name       string
	retryable  []func(error) bool
	maxRetries int
	delay      time.Duration
	sleeper    *sleeper.Sleeper
	logger     *zap.Logger
	measures   *Measures
	onRetry    OnRetryFunc
}

// New creates a Retryer.  With no retryable errors configured, every error is returned
// after the first attempt.
func New(o ...Option) *Retryer {
	r := &Retryer{
		name:       DefaultName,
		maxRetries: DefaultMaxRetries,
		delay:      DefaultDelay,
		logger:     sallust.Default(),
		measures:   discardMeasures(),
	}

	for _, f := range o {
		f(r)
	}

	if r.sleeper == nil {
		r.sleeper = sleeper.New()
	}

	r.measures = r.measures.with(r.name)
	return r
}

// MaxRetries returns the configured number of retries
func (r *Retryer) MaxRetries() int {
	return r.maxRetries
}

// Delay returns the configured delay between attempts
func (r *Retryer) Delay() time.Duration {
	return r.delay
}

// Retryable tests if err is one of the configured transient errors.  Runtime errors are never retryable.
func (r *Retryer) Retryable(err error) bool {
	if err == nil || IsDefect(err) {
		return false
	}

	for _, f := range r.retryable {
		if f(err) {
			return true
		}
	}

	return false
}

// IsDefect tests if err is a runtime.Error, i.e. a programming defect rather than an operational failure.
func IsDefect(err error) bool {
	var re runtime.Error
	return errors.As(err, &re)
}

// Run invokes work until it succeeds, fails with an error that isn't retryable, or the retries
// are exhausted.  The last error is returned unchanged.  If ctx is canceled while waiting between
// attempts, the interruption is returned instead.  Panics from work are not recovered.
func Run[T any](ctx context.Context, r *Retryer, work func(context.Context) (T, error)) (T, error) {
	var (
		remaining = r.maxRetries
		attempt   = 1
	)

	r.measures.Attempts.Add(1.0)
	result, err := work(ctx)
	for err != nil {
		switch {
		case IsDefect(err):
			r.logger.Error("runtime error, not retrying", zap.String("retryer", r.name), zap.Int("attempt", attempt), zap.Error(err))
			return result, err

		case !r.Retryable(err):
			return result, err

		case remaining < 1:
			r.measures.Exhausted.Add(1.0)
			r.logger.Error("all retries failed", zap.String("retryer", r.name), zap.Int("attempts", attempt), zap.Error(err))
			return result, err
		}

		r.logger.Debug("retrying", zap.String("retryer", r.name), zap.Int("attempt", attempt), zap.Duration("delay", r.delay), zap.Error(err))
		if r.onRetry != nil {
			r.onRetry(attempt, err, r.delay)
		}

		if ierr := r.wait(ctx); ierr != nil {
			r.measures.Aborted.Add(1.0)
			concurrent.LogInterrupted(r.logger, ierr, zap.String("retryer", r.name), zap.Int("attempt", attempt))
			var zero T
			return zero, ierr
		}

		remaining--
		attempt++
		r.measures.Retries.Add(1.0)
		r.measures.Attempts.Add(1.0)
		result, err = work(ctx)
	}

	return result, nil
}

func (r *Retryer) wait(ctx context.Context) error {
	if err := concurrent.CheckInterrupted(ctx); err != nil {
		return err
	}

	_, err := r.sleeper.Await(ctx, r.delay)
	return err
}

// Do is Run for work that produces no value
func (r *Retryer) Do(ctx context.Context, work func(context.Context) error) error {
	_, err := Run(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})

	return err
}
