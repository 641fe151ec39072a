// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package pool builds named worker pools: fixed pools with a bounded queue and an overload policy,
scheduled pools for delayed and periodic work, and managed pools that can be resized at runtime
without losing queued tasks.

All pools are created through a Factory, which also owns the bounded shutdown sequence.  Workers
are named <name>-pool-thread-<n>.  The name is available to tasks through WorkerName, is attached
to the context logger, and is set as a pprof label.
*/
package pool
