// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xmetrics

import (
	"fmt"
	"sync"

	"github.com/go-kit/kit/metrics"
	gokitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the core abstraction for this package.  It is a Prometheus registry and a go-kit
// metrics.Provider all in one.
//
// Metrics predefined through modules keep their label names.  Any other name requested through
// the provider methods becomes an ad hoc, unlabeled metric that is cached for subsequent calls.
type Registry interface {
	provider.Provider
	prometheus.Gatherer
	prometheus.Registerer
}

type registry struct {
	*prometheus.Registry

	namespace string
	subsystem string

	lock  sync.Mutex
	cache map[string]prometheus.Collector
}

// NewRegistry creates a Registry and preregisters every metric returned by the modules.
// Duplicate names are an error.
func NewRegistry(o *Options, modules ...Module) (Registry, error) {
	r := &registry{
		Registry:  o.registry(),
		namespace: o.namespace(),
		subsystem: o.subsystem(),
		cache:     make(map[string]prometheus.Collector),
	}

	for _, module := range modules {
		for _, m := range module() {
			if _, ok := r.cache[m.Name]; ok {
				return nil, fmt.Errorf("duplicate metric with name: %s", m.Name)
			}

			c, err := NewCollector(m, r.namespace, r.subsystem)
			if err != nil {
				return nil, err
			}

			if err := r.Registry.Register(c); err != nil {
				return nil, fmt.Errorf("Error while preregistering metric %s: %s", m.Name, err)
			}

			r.cache[m.Name] = c
		}
	}

	return r, nil
}

// MustRegistry is like NewRegistry, but panics on error.
func MustRegistry(o *Options, modules ...Module) Registry {
	r, err := NewRegistry(o, modules...)
	if err != nil {
		panic(err)
	}

	return r
}

// collector returns the cached collector for name, creating an ad hoc one of type t if necessary.
func (r *registry) collector(name, t string) prometheus.Collector {
	r.lock.Lock()
	defer r.lock.Unlock()

	if existing, ok := r.cache[name]; ok {
		return existing
	}

	c, err := NewCollector(Metric{Name: name, Type: t}, r.namespace, r.subsystem)
	if err != nil {
		panic(err)
	}

	if err := r.Registry.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			c = already.ExistingCollector
		} else {
			panic(err)
		}
	}

	r.cache[name] = c
	return c
}

func (r *registry) NewCounter(name string) metrics.Counter {
	if cv, ok := r.collector(name, CounterType).(*prometheus.CounterVec); ok {
		return gokitprometheus.NewCounter(cv)
	}

	panic(fmt.Errorf("The metric %s is not a counter", name))
}

func (r *registry) NewGauge(name string) metrics.Gauge {
	if gv, ok := r.collector(name, GaugeType).(*prometheus.GaugeVec); ok {
		return gokitprometheus.NewGauge(gv)
	}

	panic(fmt.Errorf("The metric %s is not a gauge", name))
}

func (r *registry) NewHistogram(name string, _ int) metrics.Histogram {
	if hv, ok := r.collector(name, HistogramType).(*prometheus.HistogramVec); ok {
		return gokitprometheus.NewHistogram(hv)
	}

	panic(fmt.Errorf("The metric %s is not a histogram", name))
}

func (r *registry) Stop() {
}
