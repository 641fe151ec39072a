// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package timeout

import (
	"fmt"
	"strings"
	"time"
)

// ExtendedTimeout is the effective timeout of every bounded wait under the Extended policy.
const ExtendedTimeout = 24 * time.Hour

// Policy determines how caller-supplied timeouts are interpreted.
type Policy int

const (
	// Normal honors caller-supplied timeouts as given.  This is the zero value.
	Normal Policy = iota

	// Extended replaces every timeout with ExtendedTimeout.
	Extended
)

// Apply returns the effective timeout for d under this policy.
func (p Policy) Apply(d time.Duration) time.Duration {
	if p == Extended {
		return ExtendedTimeout
	}

	return d
}

// IsExtended tests if this policy lengthens timeouts.
func (p Policy) IsExtended() bool {
	return p == Extended
}

func (p Policy) String() string {
	switch p {
	case Normal:
		return "normal"
	case Extended:
		return "extended"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a textual policy name.  The empty string is Normal, and "debug" is
// accepted as a synonym for Extended.
func ParsePolicy(v string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "normal":
		return Normal, nil

	case "extended", "debug":
		return Extended, nil

	default:
		return Normal, fmt.Errorf("invalid timeout policy: %q", v)
	}
}

// FromDebug returns Extended when debug is true and Normal otherwise.
func FromDebug(debug bool) Policy {
	if debug {
		return Extended
	}

	return Normal
}
