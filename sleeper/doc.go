// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package sleeper provides a cooperative, bounded wait.

A Sleeper parks the calling goroutine until its timeout elapses, until another goroutine
signals it, or until the caller's context is canceled.  It never polls.  The package-level
Sleep function is the common case of a pure delay that nothing signals.
*/
package sleeper
