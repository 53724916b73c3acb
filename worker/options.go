// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package worker

import (
	"github.com/gogpu/retrace/engine"
	"github.com/gogpu/retrace/surface"
)

// Host is the application shell as seen by the worker: it owns the screen
// orientation.
type Host interface {
	RequestedOrientation() engine.Orientation
	SetRequestedOrientation(o engine.Orientation)
}

// Option configures a Worker.
type Option func(*options)

type options struct {
	host         Host
	onResult     func(engine.Result)
	format       surface.Format
	lockOSThread bool
	sessionID    string
}

// WithHost sets the host asked to apply the engine's orientation while the
// worker runs.
func WithHost(h Host) Option {
	return func(o *options) {
		o.host = h
	}
}

// WithResultHandler sets a function called once, on the worker goroutine,
// with the final result. It must not call RequestStop.
func WithResultHandler(fn func(engine.Result)) Option {
	return func(o *options) {
		o.onResult = fn
	}
}

// WithFormat sets the pixel format requested for surfaces. By default the
// format follows the configured color bits.
func WithFormat(f surface.Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithLockOSThread locks the worker goroutine to its OS thread, for engines
// whose native context is bound to the thread that created it.
func WithLockOSThread(lock bool) Option {
	return func(o *options) {
		o.lockOSThread = lock
	}
}

// WithSessionID tags logs and the result with id.
func WithSessionID(id string) Option {
	return func(o *options) {
		o.sessionID = id
	}
}
