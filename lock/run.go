// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"errors"
	"time"

	"github.com/xmidt-org/workkit/concurrent"
	"go.uber.org/zap"
)

// UndeclaredPolicy determines what Run does with an error from work that was not declared.
type UndeclaredPolicy int

const (
	// Propagate returns undeclared errors wrapped in an *UndeclaredError.  This is the default.
	Propagate UndeclaredPolicy = iota

	// LogAndContinue logs undeclared errors and reports an unsuccessful run with no error.
	LogAndContinue
)

// RunOption configures a single call to Run or Do
type RunOption func(*runConfig)

type runConfig struct {
	declared   []func(error) bool
	undeclared UndeclaredPolicy
	quiet      bool
}

func (rc *runConfig) isDeclared(err error) bool {
	for _, f := range rc.declared {
		if f(err) {
			return true
		}
	}

	return false
}

// Declare adds errors that work may return and that the caller handles itself.  Matching uses
// errors.Is, and a matching error is returned from Run unchanged.
func Declare(errs ...error) RunOption {
	return func(rc *runConfig) {
		for _, target := range errs {
			target := target
			rc.declared = append(rc.declared, func(err error) bool {
				return errors.Is(err, target)
			})
		}
	}
}

// DeclareFunc adds an arbitrary predicate for declared errors.
func DeclareFunc(f func(error) bool) RunOption {
	return func(rc *runConfig) {
		if f != nil {
			rc.declared = append(rc.declared, f)
		}
	}
}

// DeclareAs declares every error that errors.As can convert to E.
func DeclareAs[E error]() RunOption {
	return DeclareFunc(func(err error) bool {
		var target E
		return errors.As(err, &target)
	})
}

// OnUndeclared sets the policy for errors that were not declared.
func OnUndeclared(p UndeclaredPolicy) RunOption {
	return func(rc *runConfig) {
		rc.undeclared = p
	}
}

// QuietAcquire makes an acquisition timeout report an unsuccessful run with no error
// rather than an *AcquireTimeoutError.
func QuietAcquire() RunOption {
	return func(rc *runConfig) {
		rc.quiet = true
	}
}

// Run acquires m within wait, executes work while holding it, and releases m however work ends.
// The context passed to work carries the ownership token, so work may reenter m.
//
// The returned bool is true only when work ran and returned a nil error.  Outcomes:
//
//   - acquisition timed out: *AcquireTimeoutError, or no error with QuietAcquire
//   - ctx canceled while waiting or reported by work: an interruption, returned after m is released
//   - declared error from work: that error, unchanged
//   - any other error from work: *UndeclaredError, or a log entry with OnUndeclared(LogAndContinue)
//
// A panic in work releases m and continues unwinding.
func Run[T any](ctx context.Context, m *Mutex, wait time.Duration, work func(context.Context) (T, error), o ...RunOption) (result T, ok bool, err error) {
	var rc runConfig
	for _, f := range o {
		f(&rc)
	}

	held, err := m.TryLock(ctx, wait)
	if err != nil {
		if rc.quiet && errors.Is(err, ErrAcquireTimeout) {
			return result, false, nil
		}

		return result, false, err
	}

	value, werr := func() (T, error) {
		defer m.Unlock()
		return work(held)
	}()

	switch {
	case werr == nil:
		return value, true, nil

	case concurrent.IsInterrupted(werr):
		return result, false, concurrent.Interrupted(werr)

	case rc.isDeclared(werr):
		return result, false, werr

	case rc.undeclared == LogAndContinue:
		m.logger.Error("undeclared error while holding lock", zap.String("lock", m.name), zap.Error(werr))
		return result, false, nil

	default:
		return result, false, &UndeclaredError{Lock: m.name, Cause: werr}
	}
}

// Do is Run for work that produces no value.
func Do(ctx context.Context, m *Mutex, wait time.Duration, work func(context.Context) error, o ...RunOption) (bool, error) {
	_, ok, err := Run(ctx, m, wait, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	}, o...)

	return ok, err
}
