// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package host

import (
	"sync"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/engine"
	"github.com/gogpu/retrace/worker"
)

// display is the session's orientation host. Requesting an orientation
// rotates every open window that does not match it, as a device would.
type display struct {
	s *Session

	mu      sync.Mutex
	current engine.Orientation
}

func (d *display) RequestedOrientation() engine.Orientation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *display) SetRequestedOrientation(o engine.Orientation) {
	d.mu.Lock()
	d.current = o
	d.mu.Unlock()

	if o == engine.OrientationUnspecified {
		return
	}
	d.s.loop.Post(func() { d.rotate(o) })
}

// rotate runs on the UI loop.
func (d *display) rotate(o engine.Orientation) {
	for _, w := range d.s.ctrl.Windows() {
		if engine.OrientationFor(w.Width, w.Height) == o {
			continue
		}
		if err := d.s.ctrl.OnWindowResized(w.ID, w.Height, w.Width); err != nil {
			retrace.Logger().Debug("host: rotate", "window", w.ID, "err", err)
			continue
		}
		retrace.Logger().Info("host: rotated", "window", w.ID, "orientation", o)
	}
}

var _ worker.Host = (*display)(nil)
