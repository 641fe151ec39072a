// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/xmidt-org/workkit/xmetrics"
)

const (
	AttemptCounter   = "retry_attempt_count"
	RetryCounter     = "retry_count"
	ExhaustedCounter = "retry_exhausted_count"
	AbortedCounter   = "retry_aborted_count"

	RetryerLabel = "retryer"
)

// Metrics is the retry module function for xmetrics
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name:       AttemptCounter,
			Type:       xmetrics.CounterType,
			Help:       "The total number of times work was invoked, including the first attempt",
			LabelNames: []string{RetryerLabel},
		},
		{
			Name:       RetryCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of retries after a retryable error",
			LabelNames: []string{RetryerLabel},
		},
		{
			Name:       ExhaustedCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of runs that failed after using every retry",
			LabelNames: []string{RetryerLabel},
		},
		{
			Name:       AbortedCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of runs interrupted while waiting to retry",
			LabelNames: []string{RetryerLabel},
		},
	}
}

// Measures holds the counters a Retryer reports to
type Measures struct {
	Attempts  metrics.Counter
	Retries   metrics.Counter
	Exhausted metrics.Counter
	Aborted   metrics.Counter
}

// NewMeasures realizes the retry metrics from a provider
func NewMeasures(p provider.Provider) *Measures {
	return &Measures{
		Attempts:  p.NewCounter(AttemptCounter),
		Retries:   p.NewCounter(RetryCounter),
		Exhausted: p.NewCounter(ExhaustedCounter),
		Aborted:   p.NewCounter(AbortedCounter),
	}
}

func discardMeasures() *Measures {
	return &Measures{
		Attempts:  discard.NewCounter(),
		Retries:   discard.NewCounter(),
		Exhausted: discard.NewCounter(),
		Aborted:   discard.NewCounter(),
	}
}

func (m *Measures) with(name string) *Measures {
	return &Measures{
		Attempts:  m.Attempts.With(RetryerLabel, name),
		Retries:   m.Retries.With(RetryerLabel, name),
		Exhausted: m.Exhausted.With(RetryerLabel, name),
		Aborted:   m.Aborted.With(RetryerLabel, name),
	}
}
