// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	CallerRunsName    = "caller-runs"
	DiscardOldestName = "discard-oldest"
)

// RejectionPolicy handles a task that a pool could neither start nor queue.  This happens
// when the pool is saturated or has been shut down.
type RejectionPolicy interface {
	Rejected(context.Context, Runnable, *Pool)
}

// RejectionPolicyFunc is a function type that implements RejectionPolicy
type RejectionPolicyFunc func(context.Context, Runnable, *Pool)

func (rpf RejectionPolicyFunc) Rejected(ctx context.Context, r Runnable, p *Pool) {
	rpf(ctx, r, p)
}

type callerRuns struct{}

// CallerRuns runs a rejected task synchronously on the goroutine that called Execute, with
// the context passed to Execute.  This slows producers down to the rate the pool can keep up
// with.  Panics from the task reach the caller.  If the pool is shut down, the task is dropped.
func CallerRuns() RejectionPolicy {
	return callerRuns{}
}

func (callerRuns) Rejected(ctx context.Context, r Runnable, p *Pool) {
	if p.IsShutdown() {
		p.dropped(r)
		return
	}

	p.measures.task(CallerRanOutcome)
	r.Run(ctx)
}

func (callerRuns) String() string {
	return CallerRunsName
}

type discardOldest struct{}

// DiscardOldest evicts the oldest queued task to make room for the rejected one.  Evicted
// tasks never run and are abandoned with ErrDiscarded.  If the pool is shut down, the rejected
// task is dropped.
func DiscardOldest() RejectionPolicy {
	return discardOldest{}
}

func (discardOldest) Rejected(_ context.Context, r Runnable, p *Pool) {
	for {
		if p.IsShutdown() {
			p.dropped(r)
			return
		}

		if oldest, ok := p.queue.evict(); ok {
			p.logger.Warn("pool saturated, discarded oldest queued task", zap.String("task", fmt.Sprintf("%T", oldest)))
			p.measures.task(DiscardedOutcome)
			abandon(oldest, ErrDiscarded)
		}

		if p.enqueue(r) {
			return
		}
	}
}

func (discardOldest) String() string {
	return DiscardOldestName
}

// ParsePolicy returns the RejectionPolicy with the given name.  The empty string selects CallerRuns.
func ParsePolicy(name string) (RejectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CallerRunsName:
		return CallerRuns(), nil

	case DiscardOldestName:
		return DiscardOldest(), nil

	default:
		return nil, fmt.Errorf("unknown rejection policy: %q", name)
	}
}
