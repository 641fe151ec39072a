// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package timeout defines the policy that governs every bounded wait in this module.

A Policy is a plain value that is handed to each component through its options.  Under the
Extended policy every caller-supplied timeout is replaced with ExtendedTimeout, which turns
an intermittent timing failure in a test into a hang that can be inspected with a debugger
or a goroutine dump.
*/
package timeout
