// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import "sync"

// Channel is the FIFO of lifecycle events from the controller to the worker.
//
// It is unbounded and never drops events; in practice its length is bounded
// by the number of live windows times the number of event types. The
// consumer drains it between steps with the non-blocking Drain.
//
// Thread safety: one producer and one consumer may use a Channel
// concurrently.
type Channel struct {
	mu     sync.Mutex
	queue  []Event
	ready  chan struct{}
	closed bool
	posted uint64
}

// NewChannel creates an empty Channel.
func NewChannel() *Channel {
	return &Channel{ready: make(chan struct{}, 1)}
}

// Post appends ev to the queue.
func (c *Channel) Post(ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.queue = append(c.queue, ev)
	c.posted++
	c.mu.Unlock()

	// Coalesced notification: one pending signal is enough.
	select {
	case c.ready <- struct{}{}:
	default:
	}
	return nil
}

// Drain removes and returns every queued event in posting order. It never
// blocks and returns nil when the queue is empty.
func (c *Channel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	evs := c.queue
	c.queue = nil
	return evs
}

// Ready returns a channel that receives a value after Post. A receive does
// not guarantee Drain will return events, since a previous Drain may
// already have taken them.
func (c *Channel) Ready() <-chan struct{} {
	return c.ready
}

// Len returns the number of queued events.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Posted returns the total number of events ever posted.
func (c *Channel) Posted() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posted
}

// Close rejects further posts. Queued events can still be drained.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
