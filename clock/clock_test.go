// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem(t *testing.T) {
	var (
		assert = assert.New(t)
		c      = System()
		start  = c.Now()
	)

	timer := c.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(5 * time.Second):
		assert.Fail("The system timer did not fire")
	}

	assert.True(c.Since(start) >= time.Millisecond)

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(5 * time.Second):
		assert.Fail("The system ticker did not fire")
	}
}

func TestOrSystem(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(System(), OrSystem(nil))

	custom := systemClock{}
	assert.Equal(custom, OrSystem(custom))
}

func TestStopAndDrain(t *testing.T) {
	var (
		assert = assert.New(t)
		timer  = System().NewTimer(time.Millisecond)
	)

	time.Sleep(10 * time.Millisecond)
	StopAndDrain(timer)

	select {
	case <-timer.C():
		assert.Fail("The timer channel should have been drained")
	default:
	}

	timer = System().NewTimer(time.Hour)
	StopAndDrain(timer)
	assert.False(timer.Stop())
}
