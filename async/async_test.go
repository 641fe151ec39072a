// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package async

import (
	"context"
	"errors"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/go-kit/kit/metrics/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/workkit/clock/clocktest"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/retry"
	"github.com/xmidt-org/workkit/timeout"
	"go.uber.org/zap"
)

var errCause = errors.New("cause")

// held is an Executor that keeps tasks until the test runs them
type held struct {
	tasks []pool.Runnable
}

func (h *held) Execute(_ context.Context, r pool.Runnable) {
	h.tasks = append(h.tasks, r)
}

func testPool(t *testing.T) *pool.Pool {
	f := &pool.Factory{
		Logger:   zap.NewNop(),
		Measures: pool.NewMeasures(provider.NewDiscardProvider()),
	}

	p := f.NewFixed(pool.Options{Name: "async", Threads: 2})
	t.Cleanup(func() {
		assert.NoError(t, f.Shutdown(context.Background(), p))
	})

	return p
}

func runtimeError() (err error) {
	defer func() {
		err = recover().(runtime.Error)
	}()

	var m map[string]int
	m["boom"] = 1
	return nil
}

func testSubmitSuccess(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		p       = testPool(t)
	)

	f := Submit(context.Background(), p, func(ctx context.Context) (string, error) {
		name, _ := pool.WorkerName(ctx)
		return name, nil
	})

	v, err := f.GetTimeout(context.Background(), 5*time.Second)
	require.NoError(err)
	assert.Contains(v, "async-pool-thread-")
	assert.True(f.IsDone())
	assert.False(f.Cancelled())
	assert.False(f.Cancel())
}

func testSubmitError(t *testing.T) {
	t.Run("Wrapped", func(t *testing.T) {
		var (
			assert = assert.New(t)
			p      = testPool(t)
		)

		_, err := Submit(context.Background(), p, func(context.Context) (int, error) {
			return 0, errCause
		}).GetTimeout(context.Background(), 5*time.Second)

		var ce *CompletionError
		assert.ErrorAs(err, &ce)
		assert.Same(errCause, ce.Cause)
		assert.ErrorIs(err, errCause)
		assert.Equal("completion failure: cause", err.Error())
	})

	t.Run("AlreadyWrapped", func(t *testing.T) {
		var (
			assert   = assert.New(t)
			p        = testPool(t)
			original = &CompletionError{Cause: errCause}
		)

		_, err := Submit(context.Background(), p, func(context.Context) (int, error) {
			return 0, original
		}).GetTimeout(context.Background(), 5*time.Second)

		assert.Same(original, err)
	})

	t.Run("Defect", func(t *testing.T) {
		var (
			assert = assert.New(t)
			p      = testPool(t)
			defect = runtimeError()
		)

		_, err := Submit(context.Background(), p, func(context.Context) (int, error) {
			return 0, defect
		}).GetTimeout(context.Background(), 5*time.Second)

		assert.Equal(defect, err)
	})
}

func testSubmitPanic(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		var (
			assert = assert.New(t)
			p      = testPool(t)
		)

		_, err := Submit(context.Background(), p, func(context.Context) (int, error) {
			panic(io.ErrUnexpectedEOF)
		}).GetTimeout(context.Background(), 5*time.Second)

		assert.Same(io.ErrUnexpectedEOF, err)
	})

	t.Run("Value", func(t *testing.T) {
		var (
			assert = assert.New(t)
			p      = testPool(t)
		)

		_, err := Submit(context.Background(), p, func(context.Context) (int, error) {
			panic("not an error")
		}).GetTimeout(context.Background(), 5*time.Second)

		var pe *PanicError
		if assert.ErrorAs(err, &pe) {
			assert.Equal("not an error", pe.Value)
			assert.NotEmpty(pe.Stack)
			assert.Equal("panic: not an error", pe.Error())
		}
	})
}

func testCancelQueued(t *testing.T) {
	var (
		assert = assert.New(t)
		h      = new(held)
		ran    bool
	)

	f := Submit(context.Background(), h, func(context.Context) (int, error) {
		ran = true
		return 1, nil
	})

	assert.Len(h.tasks, 1)
	assert.False(f.IsDone())

	c, ok := h.tasks[0].(pool.Canceller)
	if assert.True(ok) {
		assert.False(c.Cancelled())
	}

	assert.True(f.Cancel())
	assert.True(f.Cancelled())
	assert.True(c.Cancelled())

	h.tasks[0].Run(context.Background())
	assert.False(ran)

	_, err := f.Get(context.Background())
	assert.ErrorIs(err, ErrCancelled)
}

func testCancelRunning(t *testing.T) {
	var (
		assert      = assert.New(t)
		p           = testPool(t)
		started     = make(chan struct{})
		interrupted = make(chan error, 1)
	)

	f := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		interrupted <- ctx.Err()
		return 1, nil
	})

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		assert.FailNow("the work did not start")
	}

	assert.True(f.Cancel())

	select {
	case err := <-interrupted:
		assert.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		assert.Fail("the running work was not interrupted")
	}

	v, err := f.Get(context.Background())
	assert.Zero(v)
	assert.ErrorIs(err, ErrCancelled)
}

func testAbandoned(t *testing.T) {
	t.Run("Evicted", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			f       = &pool.Factory{Logger: zap.NewNop()}
			p       = f.NewFixed(pool.Options{Name: "evict", Threads: 1, QueueCapacity: 1, Policy: pool.DiscardOldestName})
			release = make(chan struct{})
			started = make(chan struct{})
		)

		defer func() {
			close(release)
			assert.NoError(f.Shutdown(context.Background(), p))
		}()

		p.Execute(context.Background(), pool.RunnableFunc(func(context.Context) {
			close(started)
			<-release
		}))

		<-started
		evicted := Submit(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
		newest := Submit(context.Background(), p, func(context.Context) (int, error) { return 2, nil })

		_, err := evicted.GetTimeout(context.Background(), 5*time.Second)
		assert.ErrorIs(err, pool.ErrDiscarded)
		assert.True(evicted.IsDone())
		assert.False(newest.IsDone())
	})

	t.Run("Drained", func(t *testing.T) {
		var (
			assert      = assert.New(t)
			f           = &pool.Factory{Logger: zap.NewNop()}
			p           = f.NewFixed(pool.Options{Name: "drain", Threads: 1, QueueCapacity: 10})
			started     = make(chan struct{})
			ctx, cancel = context.WithCancel(context.Background())
		)

		running := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})

		<-started
		queued := Submit(context.Background(), p, func(context.Context) (int, error) { return 1, nil })

		cancel()
		assert.ErrorIs(f.Shutdown(ctx, p), concurrent.ErrInterrupted)

		_, err := queued.GetTimeout(context.Background(), 5*time.Second)
		assert.ErrorIs(err, pool.ErrShutdown)

		_, err = running.GetTimeout(context.Background(), 5*time.Second)
		assert.ErrorIs(err, context.Canceled)
	})

	t.Run("Dropped", func(t *testing.T) {
		var (
			assert = assert.New(t)
			f      = &pool.Factory{Logger: zap.NewNop()}
			p      = f.NewFixed(pool.Options{Name: "dropped", Threads: 1})
		)

		assert.NoError(f.Shutdown(context.Background(), p))
		_, err := Submit(context.Background(), p, func(context.Context) (int, error) { return 1, nil }).
			GetTimeout(context.Background(), 5*time.Second)

		assert.ErrorIs(err, pool.ErrShutdown)
	})
}

func testGetInterrupted(t *testing.T) {
	var (
		assert      = assert.New(t)
		h           = new(held)
		ctx, cancel = context.WithCancel(context.Background())
	)

	f := Submit(context.Background(), h, func(context.Context) (int, error) { return 1, nil })
	cancel()

	_, err := f.Get(ctx)
	assert.ErrorIs(err, concurrent.ErrInterrupted)
	assert.ErrorIs(err, context.Canceled)

	_, err = f.GetTimeout(ctx, time.Hour)
	assert.ErrorIs(err, concurrent.ErrInterrupted)
	assert.False(f.IsDone())
}

func testGetTimeout(t *testing.T) {
	t.Run("Expired", func(t *testing.T) {
		var (
			assert   = assert.New(t)
			h        = new(held)
			mc       = new(clocktest.Mock)
			timer, _ = clocktest.NewFiredTimer(time.Now())
		)

		mc.OnNewTimer(time.Second, timer).Once()
		f := Submit(context.Background(), h, func(context.Context) (int, error) { return 1, nil }, WithClock(mc))

		_, err := f.GetTimeout(context.Background(), time.Second)
		assert.ErrorIs(err, ErrTimeout)
		mc.AssertExpectations(t)
	})

	t.Run("Extended", func(t *testing.T) {
		var (
			assert   = assert.New(t)
			mc       = new(clocktest.Mock)
			timer, c = clocktest.NewPendingTimer()
			h        = new(held)
		)

		mc.OnNewTimer(timeout.ExtendedTimeout, timer).Once()
		f := Submit(context.Background(), h, func(context.Context) (int, error) { return 7, nil },
			WithClock(mc), WithTimeoutPolicy(timeout.Extended))

		go h.tasks[0].Run(context.Background())
		v, err := f.GetTimeout(context.Background(), time.Millisecond)
		assert.NoError(err)
		assert.Equal(7, v)
		assert.Empty(c)
		mc.AssertExpectations(t)
	})

	t.Run("Nonpositive", func(t *testing.T) {
		var (
			assert = assert.New(t)
			h      = new(held)
		)

		f := Submit(context.Background(), h, func(context.Context) (int, error) { return 1, nil })
		_, err := f.GetTimeout(context.Background(), 0)
		assert.ErrorIs(err, ErrTimeout)
	})
}

func testSubmitRetry(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		p       = testPool(t)
		calls   int
		r       = retry.New(retry.WithRetryable(errCause), retry.WithDelay(time.Millisecond), retry.WithMaxRetries(2))
	)

	f := SubmitRetry(context.Background(), p, r, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errCause
		}

		return calls, nil
	})

	v, err := f.GetTimeout(context.Background(), 5*time.Second)
	require.NoError(err)
	assert.Equal(3, v)

	calls = 0
	exhausted := retry.New(retry.WithRetryable(errCause), retry.WithDelay(time.Millisecond), retry.WithMaxRetries(1))
	_, err = SubmitRetry(context.Background(), p, exhausted, func(context.Context) (int, error) {
		calls++
		return 0, errCause
	}).GetTimeout(context.Background(), 5*time.Second)

	var ce *CompletionError
	assert.ErrorAs(err, &ce)
	assert.Same(errCause, ce.Cause)
	assert.Equal(2, calls)
}

func testCompletedAndFailed(t *testing.T) {
	assert := assert.New(t)

	v, err := Completed("done").Get(context.Background())
	assert.NoError(err)
	assert.Equal("done", v)

	f := Failed[string](errCause)
	assert.True(f.IsDone())
	_, err = f.Get(context.Background())
	assert.Same(errCause, err)
	assert.False(f.Cancel())

	select {
	case <-f.Done():
	default:
		assert.Fail("a failed future should be done")
	}
}

func TestFuture(t *testing.T) {
	t.Run("Success", testSubmitSuccess)
	t.Run("Error", testSubmitError)
	t.Run("Panic", testSubmitPanic)
	t.Run("CancelQueued", testCancelQueued)
	t.Run("CancelRunning", testCancelRunning)
	t.Run("Abandoned", testAbandoned)
	t.Run("GetInterrupted", testGetInterrupted)
	t.Run("GetTimeout", testGetTimeout)
	t.Run("SubmitRetry", testSubmitRetry)
	t.Run("CompletedAndFailed", testCompletedAndFailed)
}
