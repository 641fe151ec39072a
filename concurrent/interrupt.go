// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package concurrent

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrInterrupted is the sentinel for any wait that was cut short by context cancellation.
var ErrInterrupted = errors.New("interrupted")

// InterruptedError carries the reason a wait was interrupted, normally ctx.Err().
type InterruptedError struct {
	Cause error
}

func (ie *InterruptedError) Error() string {
	if ie.Cause != nil {
		return "interrupted: " + ie.Cause.Error()
	}

	return ErrInterrupted.Error()
}

// Is allows errors.Is(err, ErrInterrupted) to match any InterruptedError.
func (ie *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

func (ie *InterruptedError) Unwrap() error {
	return ie.Cause
}

// Interrupted wraps cause as an interruption.  A cause that is already an interruption
// is returned as is.
func Interrupted(cause error) error {
	if cause != nil && errors.Is(cause, ErrInterrupted) {
		return cause
	}

	return &InterruptedError{Cause: cause}
}

// IsInterrupted tests if err reports an interruption, either explicitly or because it is
// one of the context package's errors.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// CheckInterrupted returns an interruption if ctx is already done, nil otherwise.
func CheckInterrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Interrupted(err)
	}

	return nil
}

// LogInterrupted is the single logging convention for an interruption that a caller has
// decided not to propagate any further.  A nil logger or a nil err is a no-op.
func LogInterrupted(logger *zap.Logger, err error, fields ...zap.Field) {
	if logger == nil || err == nil {
		return
	}

	logger.Warn("thread interrupted", append(fields, zap.Error(err))...)
}
