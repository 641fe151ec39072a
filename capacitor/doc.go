// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package capacitor debounces bursts of calls.  Functions submitted to a capacitor charge it, and
only the most recent one runs once the capacitor discharges, either because the delay elapsed
since the first submission of the burst or because Discharge was called.
*/
package capacitor
