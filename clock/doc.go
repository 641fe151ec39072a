// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package clock abstracts the time package so that the waits performed by sleepers, latches,
locks and scheduled pools can be driven deterministically from tests.  See clocktest for mocks.
*/
package clock
