// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"testing"

	"github.com/go-kit/kit/metrics/generic"
	"github.com/stretchr/testify/assert"
)

func testNewDefault(t *testing.T) {
	assert := assert.New(t)

	g := New()
	assert.True(g.IsOpen())
	assert.False(g.Raise())
	assert.True(g.Lower())
	assert.False(g.IsOpen())
	assert.False(g.Lower())
	assert.True(g.Raise())
	assert.True(g.IsOpen())
}

func testNewInitiallyClosed(t *testing.T) {
	var (
		assert = assert.New(t)
		gauge  = generic.NewGauge("closed")
		g      = New(WithInitiallyClosed(), WithClosedGauge(gauge))
	)

	assert.False(g.IsOpen())
	assert.Equal(1.0, gauge.Value())

	assert.True(g.Raise())
	assert.Equal(0.0, gauge.Value())

	assert.True(g.Lower())
	assert.Equal(1.0, gauge.Value())
}

func testNewNilGauge(t *testing.T) {
	assert := assert.New(t)

	g := New(WithClosedGauge(nil))
	assert.True(g.Lower())
	assert.False(g.IsOpen())
}

func TestNew(t *testing.T) {
	t.Run("Default", testNewDefault)
	t.Run("InitiallyClosed", testNewInitiallyClosed)
	t.Run("NilGauge", testNewNilGauge)
}
