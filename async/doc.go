// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package async runs fallible work on a pool.Executor and exposes the outcome through a Future.

Errors returned by the work are wrapped in a *CompletionError, so callers can tell a failure of
the work apart from a failure to wait for it.  A panic whose value is an error, including runtime
errors, reaches the Future unchanged.  Any other panic value is reported as a *PanicError.
*/
package async
