// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/xmetrics"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestProvide(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		s        *Service
		registry xmetrics.Registry
	)

	v, err := NewViper(NewFlagSet("test"), []string{"--name", "workkit-missing-configuration", "--threads", "3"})
	require.NoError(err)

	app := fxtest.New(t,
		fx.Supply(v),
		Provide(),
		fx.Replace(zap.NewNop()),
		fx.Populate(&s, &registry),
	)

	app.RequireStart()
	require.NotNil(s)

	started, err := s.AwaitStarted(context.Background(), time.Second)
	assert.True(started)
	assert.NoError(err)
	assert.Equal(3, s.workers.Current().Threads())

	result, err := Submit(context.Background(), s, func(context.Context) (string, error) {
		return "done", nil
	}).GetTimeout(context.Background(), 5*time.Second)

	assert.NoError(err)
	assert.Equal("done", result)

	// the task count is recorded once the worker finishes with the task
	assert.Eventually(func() bool {
		families, err := registry.Gather()
		if err != nil {
			return false
		}

		for _, mf := range families {
			if mf.GetName() == xmetrics.DefaultNamespace+"_"+xmetrics.DefaultSubsystem+"_"+pool.TaskCounter {
				return true
			}
		}

		return false
	}, 5*time.Second, 10*time.Millisecond)

	app.RequireStop()
	assert.True(s.workers.IsShutdown())
}

func TestProvideLogger(t *testing.T) {
	assert := assert.New(t)

	v, err := NewViper(NewFlagSet("test"), []string{"--name", "workkit-missing-configuration"})
	assert.NoError(err)

	c, err := NewConfig(v)
	assert.NoError(err)

	logger, err := ProvideLogger(c)
	assert.NoError(err)
	assert.NotNil(logger)
}
