// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package broker

import "errors"

// Package errors for the surface broker.
var (
	// ErrWindowGone is returned when the window was invalidated while, or
	// before, a request for it was outstanding. The returned handle is a
	// tombstone.
	ErrWindowGone = errors.New("broker: window gone")

	// ErrStopped is returned when the requesting context was cancelled,
	// which is how the worker's exit request wakes a blocked waiter.
	ErrStopped = errors.New("broker: request stopped")

	// ErrAbandoned is returned when the broker's request timeout expired
	// before the controller answered.
	ErrAbandoned = errors.New("broker: window abandoned")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("broker: closed")

	// ErrUnknownWindow is returned for window ids that are not registered.
	ErrUnknownWindow = errors.New("broker: unknown window")

	// ErrWindowExists is returned when registering an id that is still live.
	ErrWindowExists = errors.New("broker: window already registered")

	// ErrRequestInFlight is returned when a second request is made for a
	// window that already has one outstanding.
	ErrRequestInFlight = errors.New("broker: request already in flight")

	// ErrStaleHandle is returned when publishing a handle older than the
	// one already published for the window.
	ErrStaleHandle = errors.New("broker: stale handle")
)
