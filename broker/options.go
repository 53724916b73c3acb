// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package broker

import (
	"time"

	"github.com/gogpu/retrace/surface"
)

// Option configures a Broker during creation.
type Option func(*options)

// options holds optional configuration for Broker creation.
type options struct {
	timeout time.Duration
	retire  func(surface.Handle)
}

// defaultOptions returns the default broker options: no timeout, no
// retire hook.
func defaultOptions() options {
	return options{}
}

// WithTimeout bounds every RequestAndWait call. A request that is neither
// answered nor cancelled within d returns ErrAbandoned. Zero or negative
// means wait forever.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRetireHook sets the function called by Retire. The hook runs on the
// goroutine that calls Retire (the worker) and must not block; the window
// controller uses it to schedule platform surface release on the UI loop.
func WithRetireHook(fn func(surface.Handle)) Option {
	return func(o *options) {
		o.retire = fn
	}
}
