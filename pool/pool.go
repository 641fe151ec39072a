// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"fmt"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/clock"
	"github.com/xmidt-org/workkit/concurrent"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type runState int

const (
	running runState = iota
	shutdown
	stopped
)

// Stats is a point-in-time snapshot of a pool
type Stats struct {
	Name      string
	Threads   int
	Workers   int
	Active    int
	Queued    int
	Completed int64
	Rejected  int64
}

// Pool is a set of named workers fed by a FIFO queue.  Up to the core count, each Execute
// starts a new worker.  After that, tasks are queued, and once the queue is full, headroom
// workers are started.  When nothing can take a task, the pool's RejectionPolicy decides.
//
// Pools are created with a Factory.
type Pool struct {
	name      string
	core      int
	max       int
	keepAlive time.Duration
	policy    RejectionPolicy
	limiter   *rate.Limiter
	logger    *zap.Logger
	clock     clock.Interface
	measures  poolMeasures

	queue *queue

	lock    sync.Mutex
	state   runState
	workers int
	nextID  int
	wg      concurrent.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	active    atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
}

type poolConfig struct {
	name      string
	core      int
	max       int
	capacity  int
	keepAlive time.Duration
	policy    RejectionPolicy
	limiter   *rate.Limiter
	logger    *zap.Logger
	clock     clock.Interface
	measures  *Measures
}

func newPool(pc poolConfig) *Pool {
	p := &Pool{
		name:      pc.name,
		core:      pc.core,
		max:       pc.max,
		keepAlive: pc.keepAlive,
		policy:    pc.policy,
		limiter:   pc.limiter,
		logger:    pc.logger.With(zap.String("pool", pc.name)),
		clock:     pc.clock,
		measures:  poolMeasures{name: pc.name, Measures: pc.measures},
		queue:     newQueue(pc.capacity),
	}

	p.wg.Clock = pc.clock
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Name returns the name of this pool
func (p *Pool) Name() string {
	return p.name
}

// Threads returns the core worker count
func (p *Pool) Threads() int {
	return p.core
}

// Policy returns the overload policy of this pool
func (p *Pool) Policy() RejectionPolicy {
	return p.policy
}

// Execute runs r on a worker, queues it, or hands it to the RejectionPolicy.
// A nil Runnable is ignored.
func (p *Pool) Execute(ctx context.Context, r Runnable) {
	if r == nil {
		return
	}

	p.lock.Lock()
	switch {
	case p.state != running:
		p.lock.Unlock()
		p.reject(ctx, r)
		return

	case p.workers < p.core:
		p.spawn(r)
		p.lock.Unlock()
		return

	case p.queue.offer(r):
		p.lock.Unlock()
		p.measures.queue(p.queue.len())
		return

	case p.workers < p.max:
		p.spawn(r)
		p.lock.Unlock()
		return
	}

	p.lock.Unlock()
	p.reject(ctx, r)
}

// enqueue offers r to the queue if this pool is still running.  Rejection policies use this
// to retry after making room.
func (p *Pool) enqueue(r Runnable) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.state != running || !p.queue.offer(r) {
		return false
	}

	p.measures.queue(p.queue.len())
	return true
}

func (p *Pool) reject(ctx context.Context, r Runnable) {
	p.rejected.Add(1)
	p.policy.Rejected(ctx, r, p)
}

// dropped is the common handling of a task that arrives after shutdown.  The task is abandoned with ErrShutdown.
func (p *Pool) dropped(r Runnable) {
	p.logger.Warn("pool is shut down, dropping task", zap.String("task", fmt.Sprintf("%T", r)))
	p.measures.task(DroppedOutcome)
	abandon(r, ErrShutdown)
}

// spawn must be called with the lock held
func (p *Pool) spawn(first Runnable) {
	p.workers++
	p.nextID++
	p.wg.Add(1)
	p.measures.workers(p.workers)

	go p.worker(fmt.Sprintf("%s-pool-thread-%d", p.name, p.nextID), first)
}

func (p *Pool) worker(name string, first Runnable) {
	defer p.wg.Done()

	logger := p.logger.With(zap.String("worker", name))
	ctx := sallust.With(withWorkerName(p.ctx, name), logger)

	pprof.Do(ctx, pprof.Labels("pool", p.name, "worker", name), func(ctx context.Context) {
		logger.Debug("worker starting")
		for task, ok := first, true; ok; task, ok = p.take(ctx) {
			p.run(ctx, logger, task)
		}

		logger.Debug("worker exiting")
	})
}

// take blocks until a task is available.  It returns false when this worker should exit,
// in which case the worker count has already been decremented.
func (p *Pool) take(ctx context.Context) (Runnable, bool) {
	var idle clock.Timer
	defer func() {
		if idle != nil {
			idle.Stop()
		}
	}()

	for {
		task, ok, closed := p.queue.poll()
		switch {
		case ok && isCancelled(task):
			p.measures.task(CancelledOutcome)
			continue

		case ok:
			p.measures.queue(p.queue.len())
			if p.limiter != nil {
				if err := p.limiter.Wait(ctx); err != nil {
					// only a forced shutdown cancels ctx
					concurrent.LogInterrupted(sallust.Get(ctx), concurrent.Interrupted(err), zap.String("task", fmt.Sprintf("%T", task)))
					p.measures.task(DroppedOutcome)
					abandon(task, ErrShutdown)
					continue
				}
			}

			return task, true

		case closed:
			p.exit()
			return nil, false
		}

		var idleC <-chan time.Time
		if p.max > p.core {
			if idle == nil {
				idle = p.clock.NewTimer(p.keepAlive)
			}

			idleC = idle.C()
		}

		select {
		case <-p.queue.ready:
		case <-p.queue.shut:
		case <-idleC:
			idle = nil
			if p.retire() {
				return nil, false
			}
		}
	}
}

func (p *Pool) exit() {
	p.lock.Lock()
	p.workers--
	p.measures.workers(p.workers)
	p.lock.Unlock()
}

// retire lets an idle worker above the core count exit
func (p *Pool) retire() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.workers <= p.core {
		return false
	}

	p.workers--
	p.measures.workers(p.workers)
	return true
}

// run executes a task on a worker.  A panic is logged and the worker carries on.
func (p *Pool) run(ctx context.Context, logger *zap.Logger, task Runnable) {
	if isCancelled(task) {
		p.measures.task(CancelledOutcome)
		return
	}

	p.measures.active(p.active.Add(1))
	defer func() {
		p.measures.active(p.active.Add(-1))
		if r := recover(); r != nil {
			logger.Error("uncaught panic in pool worker", zap.Any("panic", r), zap.Stack("stack"))
			p.measures.task(PanickedOutcome)
			return
		}

		p.completed.Add(1)
		p.measures.task(CompletedOutcome)
	}()

	task.Run(ctx)
}

// Shutdown begins an orderly shutdown.  Queued tasks still run, but no new tasks are accepted.
// This method does not wait.  Use AwaitTermination, or Factory.Shutdown for the bounded sequence.
func (p *Pool) Shutdown() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.state == running {
		p.state = shutdown
		p.queue.close()
		p.logger.Info("pool shutting down", zap.Int("queued", p.queue.len()), zap.Int64("active", p.active.Load()))
	}
}

// ShutdownNow stops accepting tasks, cancels the context of every running task, and returns
// the tasks that were queued but never started.  The returned tasks are not abandoned; that is
// up to the caller.  Factory.Shutdown abandons them with ErrShutdown.
func (p *Pool) ShutdownNow() []Runnable {
	p.lock.Lock()
	p.state = stopped
	p.queue.close()
	p.lock.Unlock()

	drained := p.queue.drain()
	p.cancel()
	p.measures.queue(0)
	return drained
}

// AwaitTermination waits up to d for every worker to exit after a shutdown.  It returns false
// if d elapsed first, or an interruption if ctx was canceled first.  A pool that has not been
// shut down returns false immediately.
func (p *Pool) AwaitTermination(ctx context.Context, d time.Duration) (bool, error) {
	if !p.IsShutdown() {
		return false, nil
	}

	return p.wg.WaitContext(ctx, d)
}

// IsShutdown tests if Shutdown or ShutdownNow has been called
func (p *Pool) IsShutdown() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state != running
}

// IsTerminated tests if this pool is shut down and all of its workers have exited
func (p *Pool) IsTerminated() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state != running && p.workers == 0
}

// Reset removes every queued task that has not started, returning how many were removed.
// Removed tasks are abandoned with ErrRemoved.
// Cancelled entries are counted separately in the log.  Reset does nothing once the pool is shut down.
func (p *Pool) Reset() int {
	if p.IsShutdown() {
		p.logger.Debug("pool already shut down, skipping reset")
		return 0
	}

	var (
		removed   = p.queue.drain()
		cancelled int
	)

	for _, r := range removed {
		if isCancelled(r) {
			cancelled++
			p.measures.task(CancelledOutcome)
		} else {
			p.measures.task(RemovedOutcome)
		}

		abandon(r, ErrRemoved)
	}

	p.measures.queue(0)
	p.logger.Info(
		"pool reset",
		zap.Int("removed", len(removed)),
		zap.Int("cancelled", cancelled),
		zap.Int64("active", p.active.Load()),
		zap.Int64("completed", p.completed.Load()),
	)

	return len(removed)
}

// resubmit starts or queues a task moved from another pool.  The queue's capacity is ignored,
// so nothing drained from the old pool is rejected.
func (p *Pool) resubmit(r Runnable) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.workers < p.core {
		p.spawn(r)
		return
	}

	p.queue.push(r)
	p.measures.queue(p.queue.len())
}

// drain removes queued tasks for resubmission elsewhere
func (p *Pool) drain() []Runnable {
	drained := p.queue.drain()
	p.measures.queue(0)
	return drained
}

// Stats returns a snapshot of this pool's counters
func (p *Pool) Stats() Stats {
	p.lock.Lock()
	workers := p.workers
	p.lock.Unlock()

	return Stats{
		Name:      p.name,
		Threads:   p.core,
		Workers:   workers,
		Active:    int(p.active.Load()),
		Queued:    p.queue.len(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
	}
}
