// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"runtime"
	"time"
)

const (
	// MaxThreads is the upper bound on the core worker count of any pool
	MaxThreads = 256

	// DefaultQueueCapacity is the bounded queue size used when none is configured
	DefaultQueueCapacity = 1000

	// DefaultKeepAlive is how long a worker above the core count stays idle before exiting
	DefaultKeepAlive = time.Minute

	// DefaultName is used for pools that are not given a name
	DefaultName = "workkit"
)

// Options describes a pool.  The mapstructure tags allow these to be unmarshaled from viper.
type Options struct {
	// Name prefixes every worker name.  If unset, DefaultName is used.
	Name string `mapstructure:"name"`

	// Threads is the core worker count.  Nonpositive values are corrected to 1.
	Threads int `mapstructure:"threads"`

	// Headroom is the number of workers allowed beyond Threads once the queue is full.
	// Defaults to zero, so a fixed pool never grows past Threads.
	Headroom int `mapstructure:"headroom"`

	// QueueCapacity bounds the queue of a fixed pool.  Scheduled pools ignore it.
	QueueCapacity int `mapstructure:"queueCapacity"`

	// KeepAlive is the idle time after which a headroom worker exits.
	KeepAlive time.Duration `mapstructure:"keepAlive"`

	// Policy selects the overload policy by name: caller-runs (the default) or discard-oldest.
	Policy string `mapstructure:"policy"`

	// RateLimit, if positive, is the maximum number of task starts per second across the pool.
	RateLimit float64 `mapstructure:"rateLimit"`

	// RateBurst is the burst size for RateLimit.  Defaults to 1.
	RateBurst int `mapstructure:"rateBurst"`
}

func (o Options) name() string {
	if len(o.Name) > 0 {
		return o.Name
	}

	return DefaultName
}

func (o Options) headroom() int {
	if o.Headroom > 0 {
		return o.Headroom
	}

	return 0
}

func (o Options) queueCapacity() int {
	if o.QueueCapacity > 0 {
		return o.QueueCapacity
	}

	return DefaultQueueCapacity
}

func (o Options) keepAlive() time.Duration {
	if o.KeepAlive > 0 {
		return o.KeepAlive
	}

	return DefaultKeepAlive
}

func (o Options) rateBurst() int {
	if o.RateBurst > 0 {
		return o.RateBurst
	}

	return 1
}

// DefaultThreads is a workload-aware thread count: GOMAXPROCS scaled by k, capped at 16.
// A nonpositive k is treated as 1.
func DefaultThreads(k int) int {
	if k < 1 {
		k = 1
	}

	return min(16, runtime.GOMAXPROCS(0)*k)
}
