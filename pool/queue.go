// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pool

import "sync"

// queue is a FIFO of Runnables.  A nonpositive capacity means unbounded.
//
// Idle workers park on ready, which holds at most one token.  Whoever takes a Runnable while
// more remain passes the token on, so one offer never wakes more than one worker.
type queue struct {
	lock     sync.Mutex
	items    []Runnable
	capacity int
	closed   bool

	ready chan struct{}
	shut  chan struct{}
}

func newQueue(capacity int) *queue {
	return &queue{
		capacity: capacity,
		ready:    make(chan struct{}, 1),
		shut:     make(chan struct{}),
	}
}

func (q *queue) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// offer appends r unless the queue is full or closed.
func (q *queue) offer(r Runnable) bool {
	q.lock.Lock()
	if q.closed || (q.capacity > 0 && len(q.items) >= q.capacity) {
		q.lock.Unlock()
		return false
	}

	q.items = append(q.items, r)
	q.lock.Unlock()

	q.wake()
	return true
}

// push appends r regardless of capacity.  It still refuses a closed queue.
func (q *queue) push(r Runnable) bool {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return false
	}

	q.items = append(q.items, r)
	q.lock.Unlock()

	q.wake()
	return true
}

func (q *queue) head() (Runnable, bool) {
	if len(q.items) == 0 {
		return nil, false
	}

	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r, true
}

// poll removes the head.  closed is true only when the queue is both empty and closed,
// which tells a worker it may exit.
func (q *queue) poll() (r Runnable, ok bool, closed bool) {
	q.lock.Lock()
	r, ok = q.head()
	closed = !ok && q.closed
	more := len(q.items) > 0
	q.lock.Unlock()

	if more {
		q.wake()
	}

	return
}

// evict removes the head without waking anyone.
func (q *queue) evict() (Runnable, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.head()
}

// drain removes and returns everything queued, in order.
func (q *queue) drain() []Runnable {
	q.lock.Lock()
	drained := q.items
	q.items = nil
	q.lock.Unlock()

	return drained
}

func (q *queue) close() {
	q.lock.Lock()
	if !q.closed {
		q.closed = true
		close(q.shut)
	}

	q.lock.Unlock()
}

func (q *queue) len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}
