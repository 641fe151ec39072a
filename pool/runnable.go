// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"errors"
)

var (
	// ErrDiscarded is the abandonment error of a queued task evicted by the DiscardOldest policy
	ErrDiscarded = errors.New("the task was discarded to make room for a newer one")

	// ErrRemoved is the abandonment error of a queued task removed by Reset
	ErrRemoved = errors.New("the task was removed from the queue")

	// ErrShutdown is the abandonment error of a task dropped or drained by a pool shutdown
	ErrShutdown = errors.New("the pool is shut down")

	// ErrTaskCancelled is the abandonment error of a delayed task cancelled before it ran
	ErrTaskCancelled = errors.New("the scheduled task was cancelled")
)

// Runnable is a unit of work executed by a pool.  The context passed to Run is canceled when
// the pool is forcibly terminated.
type Runnable interface {
	Run(context.Context)
}

// RunnableFunc is a function type that implements Runnable
type RunnableFunc func(context.Context)

func (rf RunnableFunc) Run(ctx context.Context) {
	rf(ctx)
}

// Canceller is an optional interface for Runnables.  A queued Runnable that reports itself as
// cancelled is skipped by workers and purged by Reset.
type Canceller interface {
	Cancelled() bool
}

// Abandoner is an optional interface for Runnables.  A pool that gives up on a task without
// running it calls Abandoned exactly once with the reason: ErrDiscarded, ErrRemoved, ErrShutdown,
// or ErrTaskCancelled.
type Abandoner interface {
	Abandoned(error)
}

func abandon(r Runnable, err error) {
	if a, ok := r.(Abandoner); ok {
		a.Abandoned(err)
	}
}

func isCancelled(r Runnable) bool {
	c, ok := r.(Canceller)
	return ok && c.Cancelled()
}

// Executor is the common interface for anything that accepts tasks
type Executor interface {
	// Execute hands r to the executor.  The supplied context is used when r runs on the
	// calling goroutine, e.g. under the CallerRuns policy.
	Execute(context.Context, Runnable)
}

type workerNameKey struct{}

func withWorkerName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, workerNameKey{}, name)
}

// WorkerName returns the name of the pool worker running the current task.  The second
// return is false when the task is running on a goroutine that is not a pool worker.
func WorkerName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(workerNameKey{}).(string)
	return name, ok
}
