// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package async

import (
	"context"
	"runtime/debug"

	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/retry"
	"go.uber.org/zap"
)

// Callable is fallible work that produces a value
type Callable[T any] func(context.Context) (T, error)

// futureTask is the pool.Runnable that completes a Future
type futureTask[T any] struct {
	future   *Future[T]
	callable Callable[T]
}

// Cancelled lets pools skip and purge tasks whose Future was cancelled while queued
func (ft futureTask[T]) Cancelled() bool {
	return ft.future.Cancelled()
}

// Abandoned completes the Future with err when a pool gives up on the task without running it
func (ft futureTask[T]) Abandoned(err error) {
	var zero T
	ft.future.complete(zero, err)
}

func (ft futureTask[T]) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !ft.future.started(cancel) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			var zero T
			if err, ok := r.(error); ok {
				ft.future.complete(zero, err)
			} else {
				ft.future.complete(zero, &PanicError{Value: r, Stack: debug.Stack()})
			}

			sallust.Get(ctx).Error("panic in asynchronous work", zap.Any("panic", r))
		}
	}()

	value, err := ft.callable(ctx)
	switch {
	case err == nil:
		ft.future.complete(value, nil)

	case retry.IsDefect(err):
		ft.future.complete(value, err)

	default:
		ft.future.complete(value, wrap(err))
	}
}

func wrap(err error) error {
	if ce, ok := err.(*CompletionError); ok {
		return ce
	}

	return &CompletionError{Cause: err}
}

// Submit runs c on e and returns the Future of its outcome.  If a pool abandons the task without
// running it, the Future fails with the pool's reason, e.g. pool.ErrDiscarded or pool.ErrShutdown.
// An Executor that silently drops tasks leaves the Future incomplete.
func Submit[T any](ctx context.Context, e pool.Executor, c Callable[T], o ...Option) *Future[T] {
	f := newFuture[T](o)
	e.Execute(ctx, futureTask[T]{future: f, callable: c})
	return f
}

// SubmitRetry is Submit with c wrapped in r.  Only the error left after retries reaches the Future.
func SubmitRetry[T any](ctx context.Context, e pool.Executor, r *retry.Retryer, c Callable[T], o ...Option) *Future[T] {
	return Submit(ctx, e, func(ctx context.Context) (T, error) {
		return retry.Run(ctx, r, c)
	}, o...)
}
