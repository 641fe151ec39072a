// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package lock provides an exclusive lock whose acquisition is always bounded by a timeout or a context.

A Mutex is reentrant.  Lock and TryLock return a context carrying the holder's ownership token,
and passing that context back into the same Mutex increments the hold count instead of blocking.
Each successful acquisition must be matched by exactly one Unlock.

Run is the general form most code should use: acquire within a deadline, run some work, and
release no matter how the work ends.
*/
package lock
