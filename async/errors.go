// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package async

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is the error of a Future that was cancelled before it completed
	ErrCancelled = errors.New("the future was cancelled")

	// ErrTimeout is returned by GetTimeout when the Future did not complete in time
	ErrTimeout = errors.New("timed out waiting for the future")
)

// CompletionError wraps an error returned by asynchronous work
type CompletionError struct {
	Cause error
}

func (ce *CompletionError) Error() string {
	return "completion failure: " + ce.Cause.Error()
}

func (ce *CompletionError) Unwrap() error {
	return ce.Cause
}

// PanicError reports a panic from asynchronous work whose value was not an error
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", pe.Value)
}
