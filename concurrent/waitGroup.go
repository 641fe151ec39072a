// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package concurrent

import (
	"context"
	"sync"
	"time"

	"github.com/xmidt-org/workkit/clock"
)

// WaitGroup is an extension of sync.WaitGroup that supplies additional behavior
type WaitGroup struct {
	sync.WaitGroup

	// Clock supplies the timers for timed waits.  If unset, the system clock is used.
	Clock clock.Interface
}

// done returns a channel that is closed when Wait returns.  The goroutine spawned here
// outlives a timed out wait, but it exits as soon as the group drains.
func (wait *WaitGroup) done() <-chan struct{} {
	d := make(chan struct{})
	go func() {
		defer close(d)
		wait.Wait()
	}()

	return d
}

// WaitTimeout waits on this WaitGroup until either the wait succeeds or the
// timeout elapses.  This method returns true if sync.WaitGroup.Wait() returned
// within the timeout, false if the timeout elapsed.
func (wait *WaitGroup) WaitTimeout(timeout time.Duration) bool {
	ok, _ := wait.WaitContext(context.Background(), timeout)
	return ok
}

// WaitContext is like WaitTimeout, but also honors ctx.  If ctx is canceled first, this
// method returns false and an InterruptedError.  A nonpositive timeout only checks whether
// the group has already drained.
func (wait *WaitGroup) WaitContext(ctx context.Context, timeout time.Duration) (bool, error) {
	d := wait.done()
	if timeout <= 0 {
		select {
		case <-d:
			return true, nil
		default:
			return false, nil
		}
	}

	timer := clock.OrSystem(wait.Clock).NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return true, nil
	case <-timer.C():
		return false, nil
	case <-ctx.Done():
		return false, Interrupted(ctx.Err())
	}
}
