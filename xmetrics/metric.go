// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xmetrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// The metric types understood by NewCollector
const (
	CounterType   = "counter"
	GaugeType     = "gauge"
	HistogramType = "histogram"
)

var errNoName = errors.New("a metric requires a name")

// Module supplies the metric descriptors of one package, e.g. pool.Metrics
type Module func() []Metric

// Metric describes a metric that a Registry creates up front
type Metric struct {
	Name string
	Type string

	// Namespace and Subsystem override the Registry's values when set
	Namespace string
	Subsystem string

	// Help defaults to Name
	Help string

	ConstLabels map[string]string
	LabelNames  []string

	// Buckets only applies to histograms.  Empty means prometheus.DefBuckets.
	Buckets []float64
}

func (m Metric) opts(namespace, subsystem string) prometheus.Opts {
	o := prometheus.Opts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        m.Name,
		Help:        m.Help,
		ConstLabels: m.ConstLabels,
	}

	if len(m.Namespace) > 0 {
		o.Namespace = m.Namespace
	}

	if len(m.Subsystem) > 0 {
		o.Subsystem = m.Subsystem
	}

	if len(o.Help) == 0 {
		o.Help = m.Name
	}

	return o
}

// NewCollector creates the prometheus vector described by m.  Every collector is a vector,
// even without label names, so that go-kit's With works uniformly.
func NewCollector(m Metric, namespace, subsystem string) (prometheus.Collector, error) {
	if len(m.Name) == 0 {
		return nil, errNoName
	}

	o := m.opts(namespace, subsystem)
	switch m.Type {
	case CounterType:
		return prometheus.NewCounterVec(prometheus.CounterOpts(o), m.LabelNames), nil

	case GaugeType:
		return prometheus.NewGaugeVec(prometheus.GaugeOpts(o), m.LabelNames), nil

	case HistogramType:
		return prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   o.Namespace,
				Subsystem:   o.Subsystem,
				Name:        o.Name,
				Help:        o.Help,
				ConstLabels: o.ConstLabels,
				Buckets:     m.Buckets,
			},
			m.LabelNames,
		), nil

	default:
		return nil, fmt.Errorf("unsupported type %q for metric %s", m.Type, m.Name)
	}
}
