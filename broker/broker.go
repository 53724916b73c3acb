// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/surface"
)

// Request is the worker's description of the surface it needs.
type Request struct {
	// Window is the logical window the surface is for.
	Window surface.WindowID

	// Width and Height are the requested dimensions in pixels.
	Width  int
	Height int

	// Format is the requested pixel format. FormatUndefined lets the
	// controller choose.
	Format surface.Format

	// MinSeq is the lifecycle sequence number of the event that made the
	// worker need this surface. Only handles with Seq >= MinSeq satisfy it.
	MinSeq uint64
}

// Stats is a snapshot of broker counters.
type Stats struct {
	// Requests is the number of requests recorded.
	Requests uint64

	// Publishes is the number of accepted Publish calls.
	Publishes uint64

	// Invalidations is the number of Invalidate calls for known windows.
	Invalidations uint64

	// Wakeups is the number of times a waiter returned from Wait.
	Wakeups uint64

	// Rechecks is the number of wake-ups after which the waiter's own
	// predicate still did not hold and it went back to sleep.
	Rechecks uint64

	// Retired is the number of handles passed to Retire.
	Retired uint64
}

// entry is the per-window slot.
type entry struct {
	// live is true between Register and Invalidate.
	live bool

	// epoch increments on every Register and Invalidate, so a waiter can
	// tell that its window was destroyed even if the id was re-registered
	// before it woke up.
	epoch uint64

	// regSeq is the lifecycle sequence number of the Create event that
	// registered the current incarnation. Requests answering older events
	// belong to a previous incarnation.
	regSeq uint64

	pending      *Request
	published    surface.Handle
	hasPublished bool

	// delivered is true once RequestAndWait returned the published
	// handle. An undelivered handle that is replaced or invalidated is
	// retired by the broker itself, since the worker never saw it.
	delivered bool
}

// Broker is the shared, monitor-guarded table of pending requests and
// published handles, keyed by window id.
//
// Thread safety: Broker is safe for concurrent use. By contract only the
// worker calls RequestAndWait and Retire, and only the controller calls
// Register, Publish and Invalidate.
type Broker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	windows map[surface.WindowID]*entry
	closed  bool
	timeout time.Duration
	retire  func(surface.Handle)
	stats   Stats
}

// New creates a Broker.
func New(opts ...Option) *Broker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &Broker{
		windows: make(map[surface.WindowID]*entry),
		timeout: o.timeout,
		retire:  o.retire,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// SetRetireHook replaces the retire hook. See WithRetireHook.
func (b *Broker) SetRetireHook(fn func(surface.Handle)) {
	b.mu.Lock()
	b.retire = fn
	b.mu.Unlock()
}

// Register marks id as a live window created by the event with sequence
// number seq. A window that was invalidated may be registered again; a
// window that is still live may not. Requests with a MinSeq below seq are
// answered with ErrWindowGone.
func (b *Broker) Register(id surface.WindowID, seq uint64) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	e := b.windows[id]
	if e == nil {
		e = &entry{}
		b.windows[id] = e
	}
	if e.live {
		return fmt.Errorf("%w: %d", ErrWindowExists, id)
	}
	e.live = true
	e.epoch++
	e.regSeq = seq
	e.pending = nil
	e.published = surface.Handle{}
	e.hasPublished = false
	e.delivered = false
	return nil
}

// RequestAndWait records a pending request and blocks until it is answered.
//
// It returns:
//   - the published handle, once one with Seq >= req.MinSeq exists;
//   - surface.Tombstone(req.Window) and ErrWindowGone if the window is or
//     becomes invalidated, or if req.MinSeq predates the window's current
//     registration;
//   - ErrStopped if ctx is done;
//   - ErrAbandoned if the broker timeout expires;
//   - ErrClosed if the broker is closed.
//
// A handle published before the request was made satisfies it as long as
// its sequence number is high enough.
func (b *Broker) RequestAndWait(ctx context.Context, req Request) (surface.Handle, error) {
	if !req.Window.Valid() {
		return surface.Tombstone(req.Window), fmt.Errorf("%w: %d", ErrUnknownWindow, req.Window)
	}

	parent := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	// Wake the waiter when ctx is done. Taking the lock before Broadcast
	// guarantees the waiter is either already in Wait or has not yet
	// checked ctx.Err.
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return surface.Handle{}, ErrClosed
	}
	e := b.windows[req.Window]
	if e == nil || !e.live {
		if e != nil {
			return surface.Tombstone(req.Window), ErrWindowGone
		}
		return surface.Tombstone(req.Window), fmt.Errorf("%w: %d", ErrUnknownWindow, req.Window)
	}
	if req.MinSeq < e.regSeq {
		return surface.Tombstone(req.Window), ErrWindowGone
	}
	if e.pending != nil {
		return surface.Handle{}, fmt.Errorf("%w: window %d", ErrRequestInFlight, req.Window)
	}

	r := req
	e.pending = &r
	epoch := e.epoch
	b.stats.Requests++

	log := retrace.Logger()
	log.Debug("broker: request", "window", req.Window, "width", req.Width, "height", req.Height, "minSeq", req.MinSeq)

	woken := false
	for {
		if e.epoch != epoch || !e.live {
			return surface.Tombstone(req.Window), ErrWindowGone
		}
		if e.hasPublished && e.published.Seq >= req.MinSeq {
			e.pending = nil
			e.delivered = true
			return e.published, nil
		}
		if b.closed {
			e.pending = nil
			return surface.Handle{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			e.pending = nil
			if parent.Err() == nil {
				log.Warn("broker: window abandoned", "window", req.Window, "timeout", b.timeout)
				return surface.Tombstone(req.Window), fmt.Errorf("%w: window %d after %v", ErrAbandoned, req.Window, b.timeout)
			}
			return surface.Handle{}, fmt.Errorf("%w: %w", ErrStopped, parent.Err())
		}
		if woken {
			b.stats.Rechecks++
		}
		b.cond.Wait()
		b.stats.Wakeups++
		woken = true
	}
}

// Publish sets the published handle for id and wakes waiters. The handle's
// Window field is set to id. A pending request satisfied by the handle is
// cleared.
//
// If the replaced handle was never delivered to the worker, it is retired.
func (b *Broker) Publish(id surface.WindowID, h surface.Handle) error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	e := b.windows[id]
	if e == nil || !e.live {
		b.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	if e.hasPublished && h.Seq < e.published.Seq {
		b.mu.Unlock()
		return fmt.Errorf("%w: window %d seq %d < %d", ErrStaleHandle, id, h.Seq, e.published.Seq)
	}

	var orphan surface.Handle
	if e.hasPublished && !e.delivered && !surface.SameTarget(e.published.Ref, h.Ref) {
		orphan = e.published
	}

	h.Window = id
	e.published = h
	e.hasPublished = true
	e.delivered = false
	if e.pending != nil && h.Seq >= e.pending.MinSeq {
		e.pending = nil
	}
	b.stats.Publishes++
	b.cond.Broadcast()
	b.mu.Unlock()

	b.Retire(orphan)
	return nil
}

// Invalidate clears pending and published state for id, marks it gone and
// wakes any waiter so it observes the cancellation.
//
// An undelivered published handle is retired.
func (b *Broker) Invalidate(id surface.WindowID) {
	b.mu.Lock()

	e := b.windows[id]
	if e == nil || !e.live {
		b.mu.Unlock()
		return
	}
	var orphan surface.Handle
	if e.hasPublished && !e.delivered {
		orphan = e.published
	}
	e.live = false
	e.epoch++
	e.pending = nil
	e.published = surface.Handle{}
	e.hasPublished = false
	e.delivered = false
	b.stats.Invalidations++
	b.cond.Broadcast()
	b.mu.Unlock()

	b.Retire(orphan)
}

// Retire reports that the engine no longer uses h. The retire hook, if any,
// is called with h. Handles without a target are ignored.
//
// If h is the delivered handle still published for its window, it is
// withdrawn so no later request can receive it again.
func (b *Broker) Retire(h surface.Handle) {
	if h.Ref == nil {
		return
	}
	b.mu.Lock()
	if e := b.windows[h.Window]; e != nil && e.hasPublished && e.delivered &&
		surface.SameTarget(e.published.Ref, h.Ref) {
		e.published = surface.Handle{}
		e.hasPublished = false
		e.delivered = false
	}
	fn := b.retire
	b.stats.Retired++
	b.mu.Unlock()

	if fn != nil {
		fn(h)
	}
}

// Close wakes every waiter with ErrClosed and rejects further operations.
// Close is idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.cond.Broadcast()
}

// Pending returns the outstanding request for id, if any.
func (b *Broker) Pending(id surface.WindowID) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.windows[id]
	if e == nil || e.pending == nil {
		return Request{}, false
	}
	return *e.pending, true
}

// PendingCount returns the number of windows with an outstanding request.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.windows {
		if e.pending != nil {
			n++
		}
	}
	return n
}

// Published returns the currently published handle for id, if any.
func (b *Broker) Published(id surface.WindowID) (surface.Handle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.windows[id]
	if e == nil || !e.hasPublished {
		return surface.Handle{}, false
	}
	return e.published, true
}

// Live reports whether id is registered and not invalidated.
func (b *Broker) Live(id surface.WindowID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.windows[id]
	return e != nil && e.live
}

// Stats returns a snapshot of the broker counters.
func (b *Broker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
