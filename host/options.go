// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package host

import (
	"github.com/gogpu/retrace/results"
	"github.com/gogpu/retrace/window"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	platform     func(*window.Loop) window.Platform
	store        results.Store
	sessionID    string
	lockOSThread bool
}

// WithPlatform replaces the headless platform. fn is called once with the
// session's UI loop.
func WithPlatform(fn func(*window.Loop) window.Platform) Option {
	return func(o *options) {
		o.platform = fn
	}
}

// WithStore persists the session result to s when Run returns. The
// session does not close s.
func WithStore(s results.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithSessionID fixes the session id. By default a random UUID is used.
func WithSessionID(id string) Option {
	return func(o *options) {
		o.sessionID = id
	}
}

// WithLockOSThread pins the worker goroutine to its OS thread, for engines
// with thread-affine native contexts.
func WithLockOSThread(lock bool) Option {
	return func(o *options) {
		o.lockOSThread = lock
	}
}
