// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"sync/atomic"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

const (
	open uint32 = iota
	closed
)

// Interface is a concurrent condition indicating whether new work should be admitted
type Interface interface {
	// Raise opens this gate.  It returns true if this call changed the state.
	Raise() bool

	// Lower closes this gate.  It returns true if this call changed the state.
	Lower() bool

	// IsOpen tests if this gate is open
	IsOpen() bool
}

// Option is a configuration option for a gate
type Option func(*gate)

// WithInitiallyClosed creates the gate lowered.  Gates are open by default.
func WithInitiallyClosed() Option {
	return func(g *gate) {
		g.state = closed
	}
}

// WithClosedGauge sets a gauge that is 1 while the gate is closed and 0 while it is open.
// A nil gauge discards.
func WithClosedGauge(gauge metrics.Gauge) Option {
	return func(g *gate) {
		if gauge != nil {
			g.closedGauge = gauge
		} else {
			g.closedGauge = discard.NewGauge()
		}
	}
}

// New constructs a gate, open and with a discarding gauge unless configured otherwise
func New(o ...Option) Interface {
	g := &gate{
		state:       open,
		closedGauge: discard.NewGauge(),
	}

	for _, opt := range o {
		opt(g)
	}

	if g.state == open {
		g.closedGauge.Set(0.0)
	} else {
		g.closedGauge.Set(1.0)
	}

	return g
}

type gate struct {
	state       uint32
	closedGauge metrics.Gauge
}

func (g *gate) Raise() bool {
	if atomic.CompareAndSwapUint32(&g.state, closed, open) {
		g.closedGauge.Set(0.0)
		return true
	}

	return false
}

func (g *gate) Lower() bool {
	if atomic.CompareAndSwapUint32(&g.state, open, closed) {
		g.closedGauge.Set(1.0)
		return true
	}

	return false
}

func (g *gate) IsOpen() bool {
	return atomic.LoadUint32(&g.state) == open
}
