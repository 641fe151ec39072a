// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/workkit/async"
	"github.com/xmidt-org/workkit/capacitor/capacitortest"
	"github.com/xmidt-org/workkit/concurrent"
	"github.com/xmidt-org/workkit/lock"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/retry"
	"github.com/xmidt-org/workkit/xmetrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errTransient = errors.New("transient")

func testConfig() Config {
	return Config{
		Pool:      pool.Options{Name: "workers", Threads: 2, QueueCapacity: 10},
		Scheduled: pool.Options{Name: "scheduled", Threads: 1},
		Retry:     RetryConfig{MaxRetries: 2, Delay: time.Millisecond},
	}
}

// testService builds a Service whose capacitor discharges immediately
func testService(t *testing.T, o ...Option) (*Service, *capacitortest.Mock, *observer.ObservedLogs) {
	var (
		core, logs = observer.New(zap.DebugLevel)
		resizer    = new(capacitortest.Mock)
	)

	resizer.OnCancel().Maybe()
	s := New(testConfig(), zap.New(core), nil, append([]Option{WithCapacitor(resizer)}, o...)...)
	t.Cleanup(func() {
		// tests that care about the outcome of Stop check it themselves
		_ = s.Stop(context.Background())
	})

	return s, resizer, logs
}

func testSubmitRetries(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		s, _, _ = testService(t)
		calls   atomic.Int32
	)

	v, err := Submit(context.Background(), s, func(context.Context) (int32, error) {
		if n := calls.Add(1); n < 3 {
			return 0, errTransient
		}

		return calls.Load(), nil
	}).GetTimeout(context.Background(), 5*time.Second)

	require.NoError(err)
	assert.Equal(int32(3), v)
	assert.Equal(2, s.Retryer().MaxRetries())
}

func testSubmitPermanent(t *testing.T) {
	var (
		assert  = assert.New(t)
		s, _, _ = testService(t)
		calls   atomic.Int32
	)

	_, err := s.SubmitFunc(context.Background(), func(context.Context) error {
		calls.Add(1)
		return Permanent(errTransient)
	}).GetTimeout(context.Background(), 5*time.Second)

	var ce *async.CompletionError
	assert.ErrorAs(err, &ce)
	assert.ErrorIs(err, errTransient)
	var pe *PermanentError
	assert.ErrorAs(err, &pe)
	assert.Equal("transient", pe.Error())
	assert.Equal(int32(1), calls.Load())
	assert.Nil(Permanent(nil))
}

func testSubmitExhausted(t *testing.T) {
	var (
		assert  = assert.New(t)
		s, _, _ = testService(t)
		calls   atomic.Int32
	)

	_, err := s.SubmitFunc(context.Background(), func(context.Context) error {
		calls.Add(1)
		return errTransient
	}).GetTimeout(context.Background(), 5*time.Second)

	assert.ErrorIs(err, errTransient)
	assert.Equal(int32(3), calls.Load())
}

func testSubmitRetriesDebug(t *testing.T) {
	var (
		assert      = assert.New(t)
		require     = require.New(t)
		cfg         = testConfig()
		calls       atomic.Int32
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	)

	defer cancel()
	cfg.Debug = true
	s := New(cfg, zap.NewNop(), nil)
	t.Cleanup(func() {
		_ = s.Stop(context.Background())
	})

	v, err := Submit(ctx, s, func(context.Context) (int32, error) {
		if n := calls.Add(1); n < 2 {
			return 0, errTransient
		}

		return calls.Load(), nil
	}).Get(ctx)

	require.NoError(err)
	assert.Equal(int32(2), v)
	assert.True(s.config.TimeoutPolicy().IsExtended())
}

func testExecuteAndSchedule(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		s, _, _ = testService(t)
		names   = make(chan string, 2)
		record  = pool.RunnableFunc(func(ctx context.Context) {
			name, _ := pool.WorkerName(ctx)
			names <- name
		})
	)

	s.Execute(context.Background(), record)
	task := s.Schedule(context.Background(), record, 0)

	var started []string
	for len(started) < 2 {
		select {
		case name := <-names:
			started = append(started, name)
		case <-time.After(5 * time.Second):
			require.FailNow("the work did not run")
		}
	}

	assert.Contains(started, "scheduled-pool-thread-1")
	<-task.Done()

	_, err := s.ScheduleAtFixedRate(context.Background(), record, 0, 0)
	assert.ErrorIs(err, pool.ErrInvalidPeriod)

	stats := s.Stats()
	require.Len(stats, 2)
	assert.Equal("scheduled", stats[0].Name)
	assert.Equal("workers", stats[1].Name)
}

func testOnThreadsChanged(t *testing.T) {
	var (
		assert        = assert.New(t)
		s, resizer, _ = testService(t)
	)

	resizer.OnSubmit().Once()
	s.OnThreadsChanged(4)
	assert.Equal(4, s.workers.Current().Threads())
	resizer.AssertExpectations(t)
}

func testConfigChanged(t *testing.T) {
	var (
		assert           = assert.New(t)
		s, resizer, logs = testService(t)
		v                = viper.New()
		changed          = s.configChanged(v)
	)

	assert.False(s.Watch(v))

	resizer.OnSubmit().Once()
	v.Set(ThreadsKey, "3")
	changed(fsnotify.Event{Name: "workkit.yaml", Op: fsnotify.Write})
	assert.Equal(3, s.workers.Current().Threads())
	assert.Equal(1, logs.FilterMessage("configuration changed").Len())

	v.Set(ThreadsKey, "lots")
	changed(fsnotify.Event{Name: "workkit.yaml", Op: fsnotify.Write})
	assert.Equal(3, s.workers.Current().Threads())
	assert.Equal(1, logs.FilterMessage("invalid thread count in configuration").Len())
	resizer.AssertExpectations(t)
}

func testResizeFailure(t *testing.T) {
	var (
		assert           = assert.New(t)
		require          = require.New(t)
		coord            = lock.New("test")
		s, resizer, logs = testService(t, WithCoordination(coord))
	)

	held, err := coord.Lock(context.Background())
	require.NoError(err)
	defer coord.Unlock()

	// the pending resize is abandoned once the service stops
	resizer.OnSubmit().Once()
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.cancel()
	}()

	s.OnThreadsChanged(5)
	assert.Equal(2, s.workers.Current().Threads())
	assert.Equal(1, logs.FilterMessage("resize failed").Len())

	assert.NoError(s.Resize(held, 5))
	assert.Equal(5, s.workers.Current().Threads())
}

func testStartAndStop(t *testing.T) {
	var (
		assert           = assert.New(t)
		s, resizer, logs = testService(t)
	)

	started, err := s.AwaitStarted(context.Background(), time.Millisecond)
	assert.False(started)
	assert.NoError(err)

	s.Start()
	s.Start()
	started, err = s.AwaitStarted(context.Background(), time.Second)
	assert.True(started)
	assert.NoError(err)
	assert.Equal(1, logs.FilterMessage("scheduler started").Len())

	assert.NoError(s.Stop(context.Background()))
	assert.NoError(s.Stop(context.Background()))
	assert.Equal(1, logs.FilterMessage("scheduler stopped").Len())
	resizer.AssertCalled(t, "Cancel")

	_, err = Submit(context.Background(), s, func(context.Context) (int, error) { return 1, nil }).Get(context.Background())
	assert.ErrorIs(err, ErrStopped)
}

func testStopInterrupted(t *testing.T) {
	var (
		assert      = assert.New(t)
		s, _, logs  = testService(t)
		release     = make(chan struct{})
		ctx, cancel = context.WithCancel(context.Background())
	)

	defer close(release)
	s.Execute(context.Background(), pool.RunnableFunc(func(context.Context) { <-release }))
	assert.Eventually(func() bool { return s.workers.Stats().Active == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	err := s.Stop(ctx)
	assert.ErrorIs(err, concurrent.ErrInterrupted)
	assert.Equal(1, logs.FilterMessage("scheduler stopped with errors").Len())
}

func testPauseResume(t *testing.T) {
	var (
		assert     = assert.New(t)
		s, _, logs = testService(t)
		ran        atomic.Bool
		work       = func(context.Context) (int, error) { return 1, nil }
	)

	s.Pause()
	s.Pause()
	assert.Equal(1, logs.FilterMessage("scheduler paused").Len())

	_, err := Submit(context.Background(), s, work).Get(context.Background())
	assert.ErrorIs(err, ErrPaused)

	s.Execute(context.Background(), pool.RunnableFunc(func(context.Context) { ran.Store(true) }))
	assert.Equal(1, logs.FilterMessage("dropping work").Len())

	s.Resume()
	assert.Equal(1, logs.FilterMessage("scheduler resumed").Len())
	v, err := Submit(context.Background(), s, work).GetTimeout(context.Background(), 5*time.Second)
	assert.NoError(err)
	assert.Equal(1, v)
	assert.False(ran.Load())

	assert.NoError(s.Stop(context.Background()))
	s.Resume()
	_, err = Submit(context.Background(), s, work).Get(context.Background())
	assert.ErrorIs(err, ErrStopped)
}

func TestRetryable(t *testing.T) {
	assert := assert.New(t)
	assert.True(retryable(errTransient))
	assert.False(retryable(Permanent(errTransient)))
	assert.False(retryable(ErrStopped))
	assert.False(retryable(ErrPaused))
	assert.False(retryable(concurrent.Interrupted(context.Canceled)))
}

func TestService(t *testing.T) {
	t.Run("SubmitRetries", testSubmitRetries)
	t.Run("SubmitPermanent", testSubmitPermanent)
	t.Run("SubmitExhausted", testSubmitExhausted)
	t.Run("SubmitRetriesDebug", testSubmitRetriesDebug)
	t.Run("ExecuteAndSchedule", testExecuteAndSchedule)
	t.Run("OnThreadsChanged", testOnThreadsChanged)
	t.Run("ConfigChanged", testConfigChanged)
	t.Run("ResizeFailure", testResizeFailure)
	t.Run("StartAndStop", testStartAndStop)
	t.Run("PauseResume", testPauseResume)
	t.Run("StopInterrupted", testStopInterrupted)
}

func TestMetrics(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	r, err := xmetrics.NewRegistry(nil, lock.Metrics, retry.Metrics, pool.Metrics, Metrics)
	require.NoError(err)

	m := NewMeasures(r)
	assert.NotNil(m.GateClosed)
	assert.NotNil(m.Refused)

	s := New(testConfig(), zap.NewNop(), r)
	defer s.Stop(context.Background())

	s.Pause()
	s.Execute(context.Background(), pool.RunnableFunc(func(context.Context) {}))

	families, err := r.Gather()
	require.NoError(err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if g := m.GetGauge(); g != nil {
				values[mf.GetName()] = g.GetValue()
			} else if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}

	prefix := xmetrics.DefaultNamespace + "_" + xmetrics.DefaultSubsystem + "_"
	assert.Equal(1.0, values[prefix+GateClosedGauge])
	assert.Equal(1.0, values[prefix+RefusedCounter])
}
