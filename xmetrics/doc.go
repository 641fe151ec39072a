// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package xmetrics provides configurability for Prometheus-based metrics.  The more general go-kit interfaces
are used where possible.

Packages in this module describe their metrics with a Metrics function returning []Metric and build
their instruments from a go-kit provider.Provider.  A Registry created from those descriptors is such
a provider, so the same code runs against Prometheus in production and against the discard provider
in tests.
*/
package xmetrics
