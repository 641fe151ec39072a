// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package latch provides a reusable counting latch that can be counted both down and up.

Waiters block until the count reaches zero.  Unlike sync.WaitGroup, a Latch can be re-armed by
counting up from zero, it never panics on a negative count (counting down clamps at zero), and
every wait can be bounded by a timeout or canceled through a context.
*/
package latch
