// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"errors"
	"fmt"
	"time"
)

// ErrAcquireTimeout is matched by every AcquireTimeoutError via errors.Is.
var ErrAcquireTimeout = errors.New("lock acquisition timed out")

// AcquireTimeoutError reports that a Mutex could not be acquired within the wait duration.
// Owner describes the holder at the moment the wait gave up, if there was one.
type AcquireTimeoutError struct {
	Lock  string
	Wait  time.Duration
	Owner Owner
	Held  bool
}

func (ate *AcquireTimeoutError) Error() string {
	if ate.Held {
		return fmt.Sprintf("lock %s: acquisition timed out after %s [held by %s]", ate.Lock, ate.Wait, ate.Owner)
	}

	return fmt.Sprintf("lock %s: acquisition timed out after %s", ate.Lock, ate.Wait)
}

func (ate *AcquireTimeoutError) Is(target error) bool {
	return target == ErrAcquireTimeout
}

// UndeclaredError wraps an error returned from work passed to Run that the call site did not
// declare.  The original error is available through errors.Unwrap.
type UndeclaredError struct {
	Lock  string
	Cause error
}

func (ue *UndeclaredError) Error() string {
	return fmt.Sprintf("lock %s: undeclared error: %s", ue.Lock, ue.Cause)
}

func (ue *UndeclaredError) Unwrap() error {
	return ue.Cause
}
