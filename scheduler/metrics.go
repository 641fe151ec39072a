// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/xmidt-org/workkit/xmetrics"
)

const (
	GateClosedGauge = "scheduler_gate_closed"
	RefusedCounter  = "scheduler_refused_count"

	ReasonLabel = "reason"
	Paused      = "paused"
	Stopped     = "stopped"
)

// Metrics is the scheduler module function for xmetrics
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name: GateClosedGauge,
			Type: xmetrics.GaugeType,
			Help: "1 while the scheduler refuses new work, 0 otherwise",
		},
		{
			Name:       RefusedCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of submissions refused because the scheduler was paused or stopped",
			LabelNames: []string{ReasonLabel},
		},
	}
}

// Measures holds the metrics of a Service
type Measures struct {
	GateClosed metrics.Gauge
	Refused    metrics.Counter
}

// NewMeasures realizes the scheduler metrics from a provider
func NewMeasures(p provider.Provider) *Measures {
	return &Measures{
		GateClosed: p.NewGauge(GateClosedGauge),
		Refused:    p.NewCounter(RefusedCounter),
	}
}
