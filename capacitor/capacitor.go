// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capacitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/workkit/clock"
)

// DefaultDelay is the delay used when none is configured
const DefaultDelay = time.Second

// Interface is the behavior of a capacitor
type Interface interface {
	// Submit charges the capacitor with f, replacing any function submitted earlier in the same burst
	Submit(f func())

	// Discharge runs the pending function, if any, without waiting for the delay
	Discharge()

	// Cancel drops the pending function, if any
	Cancel()
}

// Option configures a capacitor
type Option func(*capacitor)

// WithDelay sets the time between the first submission of a burst and the discharge.  Nonpositive
// values mean DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(c *capacitor) {
		if d > 0 {
			c.delay = d
		} else {
			c.delay = DefaultDelay
		}
	}
}

// WithClock sets the clock used for the delay timer.  A nil clock means the system clock.
func WithClock(cl clock.Interface) Option {
	return func(c *capacitor) {
		c.c = clock.OrSystem(cl)
	}
}

// New builds a capacitor
func New(o ...Option) Interface {
	c := &capacitor{
		delay: DefaultDelay,
		c:     clock.System(),
	}

	for _, opt := range o {
		opt(c)
	}

	return c
}

// charge is a single burst.  Its goroutine exits once the burst discharges or is cancelled.
type charge struct {
	f      atomic.Value
	timer  clock.Timer
	stop   chan bool
	detach func() bool
}

func (ch *charge) fire() {
	if f, ok := ch.f.Load().(func()); ok && f != nil {
		f()
	}
}

// wait detaches this charge before running its function, so that submissions made while
// the function runs start a new burst.
func (ch *charge) wait() {
	defer ch.timer.Stop()

	discharge := true
	select {
	case <-ch.timer.C():
		if !ch.detach() {
			// a Discharge or Cancel that raced the timer wins
			discharge = <-ch.stop
		}

	case discharge = <-ch.stop:
	}

	if discharge {
		ch.fire()
	}
}

type capacitor struct {
	lock    sync.Mutex
	delay   time.Duration
	c       clock.Interface
	current *charge
}

// detach clears the current charge if it is still ch.  A false return means Discharge or Cancel
// took ch first and has sent its decision on ch.stop.
func (c *capacitor) detach(ch *charge) func() bool {
	return func() bool {
		c.lock.Lock()
		defer c.lock.Unlock()

		if c.current == ch {
			c.current = nil
			return true
		}

		return false
	}
}

func (c *capacitor) Submit(f func()) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.current != nil {
		c.current.f.Store(f)
		return
	}

	ch := &charge{
		timer: c.c.NewTimer(c.delay),
		stop:  make(chan bool, 1),
	}

	ch.f.Store(f)
	ch.detach = c.detach(ch)
	c.current = ch
	go ch.wait()
}

func (c *capacitor) terminate(discharge bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.current != nil {
		c.current.stop <- discharge
		c.current = nil
	}
}

func (c *capacitor) Discharge() {
	c.terminate(true)
}

func (c *capacitor) Cancel() {
	c.terminate(false)
}
