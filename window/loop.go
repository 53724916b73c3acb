// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loop is a serial executor standing in for the UI thread's message queue.
// Functions posted to a Loop run one at a time, in posting order, on the
// goroutine that called Run.
//
// Thread safety: Post, Quit and Sync are safe for concurrent use.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	stopped  bool
	quitting bool

	wake    chan struct{}
	done    chan struct{}
	started atomic.Bool
}

// NewLoop creates a Loop. Call Run to start executing posted functions.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post schedules fn on the loop. It reports false if the loop has stopped,
// in which case fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes posted functions until Quit is processed or ctx is done.
// It returns nil after Quit and ctx.Err() after cancellation. Run may be
// called only once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrLoopStopped
	}
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		for {
			fn, quit := l.next()
			if quit {
				return nil
			}
			if fn == nil {
				break
			}
			fn()
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// next pops the next function. It reports quit once a Quit posted earlier
// has been reached.
func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quitting {
		return nil, true
	}
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, false
}

// Quit asks the loop to return from Run after every function posted before
// Quit has run. Quit does not wait; use Done for that.
func (l *Loop) Quit() {
	l.Post(func() {
		l.mu.Lock()
		l.quitting = true
		l.mu.Unlock()
	})
}

// Sync runs fn on the loop and waits for it to finish. It returns
// ErrLoopStopped if the loop stopped before fn ran. Sync must not be called
// from the loop goroutine.
func (l *Loop) Sync(fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(ran)
	}) {
		return ErrLoopStopped
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
