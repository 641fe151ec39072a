// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/xmidt-org/workkit/xmetrics"
)

// Names for our metrics
const (
	AcquireCounter = "lock_acquire_count"
	WaitHistogram  = "lock_wait_seconds"
	HoldingGauge   = "lock_held"
)

// labels
const (
	LockLabel    = "lock"
	OutcomeLabel = "outcome"
)

// outcomes
const (
	AcquiredOutcome    = "acquired"
	ReenteredOutcome   = "reentered"
	TimeoutOutcome     = "timeout"
	InterruptedOutcome = "interrupted"
)

// Metrics is the lock module function for xmetrics
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name:       AcquireCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of lock acquisition attempts, by outcome",
			LabelNames: []string{LockLabel, OutcomeLabel},
		},
		{
			Name:       WaitHistogram,
			Type:       xmetrics.HistogramType,
			Help:       "The time spent waiting to acquire a lock",
			LabelNames: []string{LockLabel},
			Buckets:    []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		{
			Name:       HoldingGauge,
			Type:       xmetrics.GaugeType,
			Help:       "1 while a lock is held, 0 otherwise",
			LabelNames: []string{LockLabel},
		},
	}
}

// Measures is the set of instruments a Mutex reports to
type Measures struct {
	Acquire metrics.Counter
	Wait    metrics.Histogram
	Held    metrics.Gauge
}

// NewMeasures realizes the lock metrics from a provider
func NewMeasures(p provider.Provider) *Measures {
	return &Measures{
		Acquire: p.NewCounter(AcquireCounter),
		Wait:    p.NewHistogram(WaitHistogram, 10),
		Held:    p.NewGauge(HoldingGauge),
	}
}

func discardMeasures() *Measures {
	return &Measures{
		Acquire: discard.NewCounter(),
		Wait:    discard.NewHistogram(),
		Held:    discard.NewGauge(),
	}
}
