// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"errors"

	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/retry"
)

var (
	// ErrStopped is the error of work submitted after Stop
	ErrStopped = errors.New("the scheduler is stopped")

	// ErrPaused is the error of work submitted while the scheduler is paused
	ErrPaused = errors.New("the scheduler is paused")
)

// PermanentError marks an error from submitted work that must not be retried
type PermanentError struct {
	Err error
}

func (pe *PermanentError) Error() string {
	return pe.Err.Error()
}

func (pe *PermanentError) Unwrap() error {
	return pe.Err
}

// Permanent wraps err so that Submit does not retry it.  A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &PermanentError{Err: err}
}

// retryable is every error except permanent ones, interruptions, and refusals
func retryable(err error) bool {
	var pe *PermanentError
	switch {
	case errors.As(err, &pe):
		return false

	case concurrent.IsInterrupted(err), errors.Is(err, ErrStopped), errors.Is(err, ErrPaused):
		return false

	default:
		return !retry.IsDefect(err)
	}
}
