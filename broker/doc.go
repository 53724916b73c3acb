// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package broker implements the surface handoff monitor shared by the
// worker and the window controller.
//
// A [Broker] holds, per window id, at most one pending [Request] and one
// published [surface.Handle]. The worker calls [Broker.RequestAndWait] and
// blocks; the controller calls [Broker.Publish] when a platform surface
// exists and [Broker.Invalidate] when the window is destroyed.
//
// All state is guarded by one mutex and one condition variable per broker.
// Every publish and invalidate broadcasts; each waiter re-checks its own
// window's predicate after every wake, so wake-ups meant for another window
// and spurious wake-ups never satisfy a request.
//
// The predicate for a request on window w with minimum sequence s is:
//
//	published(w).Seq >= s  OR  invalidated(w)  OR  ctx done  OR  broker closed
//
// The context is how the worker's exit request reaches a blocked waiter.
//
//	b := broker.New(broker.WithTimeout(5 * time.Second))
//	b.Register(0, 1)
//
//	// worker goroutine
//	h, err := b.RequestAndWait(ctx, broker.Request{Window: 0, Width: 100, Height: 100, MinSeq: 1})
//
//	// UI goroutine
//	b.Publish(0, surface.Handle{Ref: target, Width: 100, Height: 100, Seq: 1})
package broker
