// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"sync"
	"time"

	"github.com/gogpu/retrace/surface"
)

// HeadlessOption configures a Headless platform.
type HeadlessOption func(*Headless)

// WithDelay makes surfaces become ready d after they were requested,
// simulating a compositor that answers asynchronously.
func WithDelay(d time.Duration) HeadlessOption {
	return func(h *Headless) {
		h.delay = d
	}
}

// WithManualDelivery holds created surfaces until Deliver is called.
func WithManualDelivery() HeadlessOption {
	return func(h *Headless) {
		h.manual = true
	}
}

// WithPreferredFormat sets the format the headless device reports.
func WithPreferredFormat(f surface.Format) HeadlessOption {
	return func(h *Headless) {
		h.device.Preferred = f
	}
}

// heldSurface is a created surface waiting for Deliver.
type heldSurface struct {
	spec   SurfaceSpec
	target *surface.ImageTarget
	ready  func(surface.Target)
}

// Headless is a Platform backed by CPU image targets. It has no display.
//
// Thread safety: the Platform methods run on the UI loop; Deliver and the
// counters may be called from any goroutine.
type Headless struct {
	loop   *Loop
	device surface.HeadlessDevice
	delay  time.Duration
	manual bool

	mu       sync.Mutex
	held     []heldSurface
	created  int
	released int
	live     map[*surface.ImageTarget]surface.WindowID
}

// NewHeadless creates a headless platform that delivers surfaces on loop.
func NewHeadless(loop *Loop, opts ...HeadlessOption) *Headless {
	h := &Headless{
		loop: loop,
		live: make(map[*surface.ImageTarget]surface.WindowID),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateSurface allocates an ImageTarget and schedules ready on the loop.
func (h *Headless) CreateSurface(spec SurfaceSpec, ready func(surface.Target)) {
	t := surface.NewImageTarget(spec.Width, spec.Height, spec.Format)

	h.mu.Lock()
	h.created++
	h.live[t] = spec.Window
	if h.manual {
		h.held = append(h.held, heldSurface{spec: spec, target: t, ready: ready})
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	deliver := func() { ready(t) }
	if h.delay > 0 {
		time.AfterFunc(h.delay, func() { h.loop.Post(deliver) })
		return
	}
	h.loop.Post(deliver)
}

// ReleaseSurface releases an ImageTarget created by this platform.
func (h *Headless) ReleaseSurface(t surface.Target) {
	it, ok := t.(*surface.ImageTarget)
	if !ok {
		return
	}
	h.mu.Lock()
	if _, live := h.live[it]; live {
		delete(h.live, it)
		h.released++
	}
	h.mu.Unlock()
	it.Release()
}

// DeviceProvider returns the headless device.
func (h *Headless) DeviceProvider() surface.DeviceProvider {
	return h.device
}

// Deliver posts the oldest held surface for id to the loop. It reports
// false if nothing is held for id. Only meaningful with WithManualDelivery.
func (h *Headless) Deliver(id surface.WindowID) bool {
	h.mu.Lock()
	var hs heldSurface
	found := false
	for i, s := range h.held {
		if s.spec.Window == id {
			hs = s
			h.held = append(h.held[:i], h.held[i+1:]...)
			found = true
			break
		}
	}
	h.mu.Unlock()
	if !found {
		return false
	}
	return h.loop.Post(func() { hs.ready(hs.target) })
}

// Held returns the specs of surfaces created but not yet delivered.
func (h *Headless) Held() []SurfaceSpec {
	h.mu.Lock()
	defer h.mu.Unlock()
	specs := make([]SurfaceSpec, len(h.held))
	for i, s := range h.held {
		specs[i] = s.spec
	}
	return specs
}

// Created returns the number of surfaces created.
func (h *Headless) Created() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.created
}

// Released returns the number of surfaces released.
func (h *Headless) Released() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Live returns the number of created surfaces not yet released.
func (h *Headless) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// Ensure Headless implements Platform.
var _ Platform = (*Headless)(nil)
