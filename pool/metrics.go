// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/xmidt-org/workkit/xmetrics"
)

// Names for our metrics
const (
	TaskCounter   = "pool_task_count"
	QueueGauge    = "pool_queue_depth"
	ActiveGauge   = "pool_active_workers"
	WorkersGauge  = "pool_workers"
	PendingGauge  = "pool_scheduled_pending"
	ResizeCounter = "pool_resize_count"
)

// labels
const (
	PoolLabel    = "pool"
	OutcomeLabel = "outcome"
)

// task outcomes
const (
	CompletedOutcome = "completed"
	PanickedOutcome  = "panicked"
	CallerRanOutcome = "caller_ran"
	DiscardedOutcome = "discarded"
	DroppedOutcome   = "dropped"
	CancelledOutcome = "cancelled"
	RemovedOutcome   = "removed"
)

// Metrics is the pool module function for xmetrics
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name:       TaskCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of tasks handled by a pool, by outcome",
			LabelNames: []string{PoolLabel, OutcomeLabel},
		},
		{
			Name:       QueueGauge,
			Type:       xmetrics.GaugeType,
			Help:       "The number of tasks waiting in a pool's queue",
			LabelNames: []string{PoolLabel},
		},
		{
			Name:       ActiveGauge,
			Type:       xmetrics.GaugeType,
			Help:       "The number of workers currently running a task",
			LabelNames: []string{PoolLabel},
		},
		{
			Name:       WorkersGauge,
			Type:       xmetrics.GaugeType,
			Help:       "The number of live workers",
			LabelNames: []string{PoolLabel},
		},
		{
			Name:       PendingGauge,
			Type:       xmetrics.GaugeType,
			Help:       "The number of delayed or periodic tasks waiting on a timer",
			LabelNames: []string{PoolLabel},
		},
		{
			Name:       ResizeCounter,
			Type:       xmetrics.CounterType,
			Help:       "The number of times a managed pool was rebuilt with a new size",
			LabelNames: []string{PoolLabel},
		},
	}
}

// Measures is the set of instruments shared by every pool a Factory builds.  Each pool
// adds its own name as a label.
type Measures struct {
	Tasks   metrics.Counter
	Queue   metrics.Gauge
	Active  metrics.Gauge
	Workers metrics.Gauge
	Pending metrics.Gauge
	Resizes metrics.Counter
}

// NewMeasures realizes the pool metrics from a provider
func NewMeasures(p provider.Provider) *Measures {
	return &Measures{
		Tasks:   p.NewCounter(TaskCounter),
		Queue:   p.NewGauge(QueueGauge),
		Active:  p.NewGauge(ActiveGauge),
		Workers: p.NewGauge(WorkersGauge),
		Pending: p.NewGauge(PendingGauge),
		Resizes: p.NewCounter(ResizeCounter),
	}
}

func discardMeasures() *Measures {
	return &Measures{
		Tasks:   discard.NewCounter(),
		Queue:   discard.NewGauge(),
		Active:  discard.NewGauge(),
		Workers: discard.NewGauge(),
		Pending: discard.NewGauge(),
		Resizes: discard.NewCounter(),
	}
}

// poolMeasures binds Measures to a single pool name
type poolMeasures struct {
	name string
	*Measures
}

func (pm poolMeasures) task(outcome string) {
	pm.Tasks.With(PoolLabel, pm.name, OutcomeLabel, outcome).Add(1.0)
}

func (pm poolMeasures) queue(n int) {
	pm.Queue.With(PoolLabel, pm.name).Set(float64(n))
}

func (pm poolMeasures) active(n int64) {
	pm.Active.With(PoolLabel, pm.name).Set(float64(n))
}

func (pm poolMeasures) workers(n int) {
	pm.Workers.With(PoolLabel, pm.name).Set(float64(n))
}

func (pm poolMeasures) pending(n int) {
	pm.Pending.With(PoolLabel, pm.name).Set(float64(n))
}

func (pm poolMeasures) resized() {
	pm.Resizes.With(PoolLabel, pm.name).Add(1.0)
}
