// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Interface represents a clock with the same core functionality available as in the stdlib time package
type Interface interface {
	Now() time.Time
	Since(time.Time) time.Duration
	NewTimer(time.Duration) Timer
	NewTicker(time.Duration) Ticker
}

type systemClock struct{}

func (sc systemClock) Now() time.Time {
	return time.Now()
}

func (sc systemClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (sc systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

func (sc systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

// System returns a clock backed by the time package
func System() Interface {
	return systemClock{}
}

// OrSystem returns c, or System() when c is nil.  Option functions use this to honor nil arguments.
func OrSystem(c Interface) Interface {
	if c != nil {
		return c
	}

	return System()
}

// Ticker is the analog of time.Ticker.
type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type systemTicker struct {
	*time.Ticker
}

func (st systemTicker) C() <-chan time.Time {
	return st.Ticker.C
}

// Timer represents an event source triggered at a particular time.  It is the analog of time.Timer.
type Timer interface {
	C() <-chan time.Time
	Reset(time.Duration) bool
	Stop() bool
}

type systemTimer struct {
	*time.Timer
}

func (st systemTimer) C() <-chan time.Time {
	return st.Timer.C
}

// StopAndDrain stops t and discards any value already delivered on its channel, so that the
// timer can be safely reset.
func StopAndDrain(t Timer) {
	if !t.Stop() {
		select {
		case <-t.C():
		default:
		}
	}
}
