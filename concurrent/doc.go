// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package concurrent provides common functionality for dealing with concurrency that extends
or enhances the core golang packages.

Interruption is modeled as context cancellation.  Any blocking wait in this module that is cut
short by its context reports ErrInterrupted, wrapping the context's error, and callers that
choose to absorb an interruption log it through LogInterrupted so that it is never silent.
*/
package concurrent
