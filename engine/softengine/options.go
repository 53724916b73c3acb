// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softengine

import "time"

// Option configures an Engine.
type Option func(*options)

type options struct {
	frameCount int
	width      int
	height     int
	now        func() time.Time
}

func defaultOptions() options {
	return options{
		frameCount: 300,
		width:      1280,
		height:     720,
		now:        time.Now,
	}
}

// WithFrameCount sets the number of frames in the synthetic workload.
func WithFrameCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.frameCount = n
		}
	}
}

// WithHeaderSize sets the window size the workload was "captured" at. It is
// used when the configuration does not specify one.
func WithHeaderSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
