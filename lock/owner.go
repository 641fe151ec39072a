// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

// Owner describes the current holder of a Mutex.
type Owner struct {
	// ID is the ownership token.  A context carrying this token reenters the Mutex.
	ID ksuid.KSUID

	// Name is the value supplied with WithOwnerName, or empty.
	Name string

	// Acquired is the time the first hold was obtained.
	Acquired time.Time

	// Caller is the file:line of the code that obtained the first hold.
	Caller string
}

func (o Owner) String() string {
	name := o.Name
	if len(name) == 0 {
		name = o.ID.String()
	}

	return fmt.Sprintf("%s at %s since %s", name, o.Caller, o.Acquired.Format(time.RFC3339Nano))
}

type ownerNameKey struct{}

// WithOwnerName returns a context that labels any lock acquired with it.  The name shows up
// in timeout errors and log output for other goroutines waiting on the same lock.
func WithOwnerName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ownerNameKey{}, name)
}

// OwnerName returns the name set with WithOwnerName, if any.
func OwnerName(ctx context.Context) string {
	name, _ := ctx.Value(ownerNameKey{}).(string)
	return name
}

// tokenKey is keyed by Mutex, so that holding one lock never reenters another.
type tokenKey struct {
	m *Mutex
}

func token(ctx context.Context, m *Mutex) (ksuid.KSUID, bool) {
	id, ok := ctx.Value(tokenKey{m}).(ksuid.KSUID)
	return id, ok
}

var packageDir string

func init() {
	_, file, _, _ := runtime.Caller(0)
	packageDir = filepath.Dir(file)
}

// caller finds the first stack frame outside of this package's non-test sources.
func caller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if filepath.Dir(frame.File) != packageDir || strings.HasSuffix(frame.File, "_test.go") {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}

		if !more {
			return "unknown"
		}
	}
}
