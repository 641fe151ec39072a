// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package gate provides an admission flag for work.  A lowered gate refuses new submissions
while leaving work that was already admitted alone.
*/
package gate
