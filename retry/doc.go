// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package retry runs work with a bounded number of retries and a fixed delay between attempts.
// Only errors the Retryer was told are transient are retried.  Everything else, including
// runtime errors and panics, reaches the caller immediately.
package retry
