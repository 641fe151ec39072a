// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	DefaultNamespace = "workkit"
	DefaultSubsystem = "concurrency"
)

// Options is the configurable options for creating a Prometheus registry
type Options struct {
	// Namespace is the default namespace for metrics which don't define one.  If not supplied,
	// DefaultNamespace is used.
	Namespace string `mapstructure:"namespace"`

	// Subsystem is the default subsystem for metrics which don't define one.  If not supplied,
	// DefaultSubsystem is used.
	Subsystem string `mapstructure:"subsystem"`

	// Pedantic indicates whether the registry is created via NewPedanticRegistry().  Set to true
	// for testing or development.
	Pedantic bool `mapstructure:"pedantic"`

	// DisableGoCollector controls whether the Go Collector is registered with the Registry.
	DisableGoCollector bool `mapstructure:"disableGoCollector"`

	// DisableProcessCollector controls whether the Process Collector is registered with the Registry.
	DisableProcessCollector bool `mapstructure:"disableProcessCollector"`
}

func (o *Options) namespace() string {
	if o != nil && len(o.Namespace) > 0 {
		return o.Namespace
	}

	return DefaultNamespace
}

func (o *Options) subsystem() string {
	if o != nil && len(o.Subsystem) > 0 {
		return o.Subsystem
	}

	return DefaultSubsystem
}

func (o *Options) registry() *prometheus.Registry {
	var pr *prometheus.Registry
	if o != nil && o.Pedantic {
		pr = prometheus.NewPedanticRegistry()
	} else {
		pr = prometheus.NewRegistry()
	}

	if o == nil || !o.DisableGoCollector {
		pr.MustRegister(collectors.NewGoCollector())
	}

	if o == nil || !o.DisableProcessCollector {
		pr.MustRegister(collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{Namespace: o.namespace()},
		))
	}

	return pr
}
