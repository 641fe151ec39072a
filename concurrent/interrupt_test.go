// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package concurrent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInterrupted(t *testing.T) {
	assert := assert.New(t)

	err := Interrupted(context.Canceled)
	assert.ErrorIs(err, ErrInterrupted)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal("interrupted: context canceled", err.Error())
	assert.True(IsInterrupted(err))

	assert.Same(err, Interrupted(err))

	wrapped := fmt.Errorf("while waiting: %w", err)
	assert.Equal(wrapped, Interrupted(wrapped))

	bare := Interrupted(nil)
	assert.Equal("interrupted", bare.Error())
	assert.ErrorIs(bare, ErrInterrupted)
}

func TestIsInterrupted(t *testing.T) {
	assert := assert.New(t)
	assert.True(IsInterrupted(context.DeadlineExceeded))
	assert.True(IsInterrupted(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.False(IsInterrupted(errors.New("expected")))
	assert.False(IsInterrupted(nil))
}

func TestCheckInterrupted(t *testing.T) {
	assert := assert.New(t)
	assert.NoError(CheckInterrupted(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(CheckInterrupted(ctx), ErrInterrupted)
}

func TestLogInterrupted(t *testing.T) {
	var (
		assert       = assert.New(t)
		core, logs   = observer.New(zap.DebugLevel)
		logger       = zap.New(core)
		interruption = Interrupted(context.Canceled)
	)

	LogInterrupted(nil, interruption)
	LogInterrupted(logger, nil)
	assert.Zero(logs.Len())

	LogInterrupted(logger, interruption, zap.String("pool", "test"))
	if assert.Equal(1, logs.Len()) {
		entry := logs.All()[0]
		assert.Equal("thread interrupted", entry.Message)
		assert.Equal("test", entry.ContextMap()["pool"])
	}
}
