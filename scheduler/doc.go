// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package scheduler is a small work scheduling service assembled from the rest of this module.

A Service owns a resizable worker pool and a scheduled pool, both built by a single pool.Factory
and resized under one coordination lock.  Work is submitted through futures, optionally with
retries.  Configuration comes from viper, and a change to the configured thread count resizes
the worker pool once a burst of changes has settled.  Provide wires all of this into an fx application.
*/
package scheduler
