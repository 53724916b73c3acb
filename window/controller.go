// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"fmt"
	"slices"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/broker"
	"github.com/gogpu/retrace/surface"
)

// ControllerOption configures a Controller.
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	kind   surface.Kind
	alpha  float32
	format surface.Format
}

func defaultControllerOptions() controllerOptions {
	return controllerOptions{
		kind:  surface.KindView,
		alpha: 1,
	}
}

// WithSingleWindow selects plain view surfaces when single is true (the
// default) and overlay-capable texture views otherwise.
func WithSingleWindow(single bool) ControllerOption {
	return func(o *controllerOptions) {
		if single {
			o.kind = surface.KindView
			o.alpha = 1
		} else {
			o.kind = surface.KindOverlay
		}
	}
}

// WithOverlay selects overlay surfaces with the given opacity in percent.
// Values outside [0, 100] are clamped.
func WithOverlay(alphaPercent int) ControllerOption {
	return func(o *controllerOptions) {
		alphaPercent = max(0, min(alphaPercent, 100))
		o.kind = surface.KindOverlay
		o.alpha = float32(alphaPercent) / 100
	}
}

// WithFormat forces the pixel format requested from the platform. By
// default the platform device provider's preferred format is used.
func WithFormat(f surface.Format) ControllerOption {
	return func(o *controllerOptions) {
		o.format = f
	}
}

// Info is a snapshot of one window the controller owns.
type Info struct {
	ID     surface.WindowID
	Width  int
	Height int

	// Seq is the sequence number of the window's latest lifecycle event.
	Seq uint64

	// Published is the sequence number of the latest published handle, or
	// 0 if the window has no surface yet.
	Published uint64
}

type windowState struct {
	width     int
	height    int
	seq       uint64
	published uint64
}

// Controller owns the platform surfaces and answers the worker's surface
// requests through the broker.
//
// Every method except Retire must be called on the UI loop goroutine. Retire
// may be called from anywhere; it posts the release onto the loop.
//
// NewController installs Retire as the broker's retire hook.
type Controller struct {
	loop     *Loop
	broker   *broker.Broker
	events   *Channel
	platform Platform
	opts     controllerOptions

	seq     uint64
	windows map[surface.WindowID]*windowState

	// targets holds every platform target that was delivered to the
	// controller and not yet released.
	targets map[surface.Target]surface.WindowID
	closed  bool
}

// NewController creates a controller. It does not create any window.
func NewController(loop *Loop, b *broker.Broker, events *Channel, p Platform, opts ...ControllerOption) *Controller {
	o := defaultControllerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Controller{
		loop:     loop,
		broker:   b,
		events:   events,
		platform: p,
		opts:     o,
		windows:  make(map[surface.WindowID]*windowState),
		targets:  make(map[surface.Target]surface.WindowID),
	}
	b.SetRetireHook(c.Retire)
	return c
}

// OnWindowNeeded opens window id at the given size: it registers the window
// with the broker, posts a Create event and asks the platform for a surface.
func (c *Controller) OnWindowNeeded(id surface.WindowID, width, height int) error {
	if c.closed {
		return ErrControllerClosed
	}
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if _, ok := c.windows[id]; ok {
		return fmt.Errorf("%w: %d", ErrWindowExists, id)
	}
	c.seq++
	if err := c.broker.Register(id, c.seq); err != nil {
		return fmt.Errorf("window: register %d: %w", id, err)
	}

	ws := &windowState{width: width, height: height, seq: c.seq}
	c.windows[id] = ws

	if err := c.events.Post(Event{Type: Create, Window: id, Width: width, Height: height, Seq: ws.seq}); err != nil {
		delete(c.windows, id)
		c.broker.Invalidate(id)
		return err
	}

	retrace.Logger().Info("window: created", "window", id, "width", width, "height", height, "kind", c.opts.kind)
	c.createSurface(id, ws)
	return nil
}

// OnWindowResized announces new dimensions for window id. The current
// surface is superseded by a new one. A resize to the current size is a
// no-op.
func (c *Controller) OnWindowResized(id surface.WindowID, width, height int) error {
	if c.closed {
		return ErrControllerClosed
	}
	ws, ok := c.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if ws.width == width && ws.height == height {
		return nil
	}

	c.seq++
	ws.width, ws.height, ws.seq = width, height, c.seq
	if err := c.events.Post(Event{Type: Resize, Window: id, Width: width, Height: height, Seq: ws.seq}); err != nil {
		return err
	}

	retrace.Logger().Debug("window: resized", "window", id, "width", width, "height", height, "seq", ws.seq)
	c.createSurface(id, ws)
	return nil
}

// OnWindowGone closes window id: it posts a Destroy event and invalidates
// the window in the broker, waking a waiting worker. Surfaces the worker
// still holds are released when it retires them.
func (c *Controller) OnWindowGone(id surface.WindowID) error {
	if c.closed {
		return ErrControllerClosed
	}
	if _, ok := c.windows[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	delete(c.windows, id)

	c.seq++
	err := c.events.Post(Event{Type: Destroy, Window: id, Seq: c.seq})
	c.broker.Invalidate(id)

	retrace.Logger().Info("window: destroyed", "window", id)
	return err
}

// SurfaceReady is the platform callback for a surface created in answer to
// event seq. A surface for a window that is gone, or that a later event has
// superseded, is released without being published.
func (c *Controller) SurfaceReady(id surface.WindowID, seq uint64, t surface.Target) {
	if t == nil {
		return
	}
	if !surface.Comparable(t) {
		retrace.Logger().Warn("window: platform target is not comparable", "window", id, "type", fmt.Sprintf("%T", t))
		c.platform.ReleaseSurface(t)
		return
	}
	ws, ok := c.windows[id]
	if c.closed || !ok || seq != ws.seq {
		retrace.Logger().Debug("window: dropping superseded surface", "window", id, "seq", seq)
		c.platform.ReleaseSurface(t)
		return
	}

	if req, pending := c.broker.Pending(id); pending && req.Format != surface.FormatUndefined && req.Format != t.Format() {
		retrace.Logger().Warn("window: surface format differs from request",
			"window", id, "requested", req.Format, "actual", t.Format())
	}

	h := surface.Handle{
		Window: id,
		Ref:    t,
		Width:  t.Width(),
		Height: t.Height(),
		Format: t.Format(),
		Kind:   c.opts.kind,
		Alpha:  c.opts.alpha,
		Seq:    seq,
	}
	c.targets[t] = id
	if err := c.broker.Publish(id, h); err != nil {
		retrace.Logger().Warn("window: publish failed", "window", id, "err", err)
		c.release(t)
		return
	}
	ws.published = seq
	retrace.Logger().Debug("window: published", "window", id, "handle", h)
}

// SurfaceLost is the platform callback for a surface destroyed by the
// windowing system. The window is treated as gone.
func (c *Controller) SurfaceLost(id surface.WindowID) {
	if err := c.OnWindowGone(id); err != nil {
		retrace.Logger().Debug("window: surface lost", "window", id, "err", err)
	}
}

// Retire releases the platform surface behind h on the UI loop. It is the
// broker's retire hook and may be called from any goroutine.
func (c *Controller) Retire(h surface.Handle) {
	if h.Ref == nil {
		return
	}
	t := h.Ref
	if !c.loop.Post(func() { c.release(t) }) {
		retrace.Logger().Debug("window: loop stopped before retire", "window", h.Window)
	}
}

func (c *Controller) release(t surface.Target) {
	if !surface.Comparable(t) {
		return
	}
	if _, ok := c.targets[t]; !ok {
		return
	}
	delete(c.targets, t)
	c.platform.ReleaseSurface(t)
}

func (c *Controller) createSurface(id surface.WindowID, ws *windowState) {
	spec := SurfaceSpec{
		Window: id,
		Width:  ws.width,
		Height: ws.height,
		Format: surface.PreferredFormat(c.opts.format, c.platform.DeviceProvider()),
		Kind:   c.opts.kind,
		Alpha:  c.opts.alpha,
		Seq:    ws.seq,
	}
	c.platform.CreateSurface(spec, func(t surface.Target) {
		c.SurfaceReady(id, spec.Seq, t)
	})
}

// Windows returns a snapshot of the open windows ordered by id.
func (c *Controller) Windows() []Info {
	infos := make([]Info, 0, len(c.windows))
	for id, ws := range c.windows {
		infos = append(infos, Info{ID: id, Width: ws.width, Height: ws.height, Seq: ws.seq, Published: ws.published})
	}
	slices.SortFunc(infos, func(a, b Info) int { return int(a.ID) - int(b.ID) })
	return infos
}

// Targets returns the number of delivered platform targets not yet
// released.
func (c *Controller) Targets() int {
	return len(c.targets)
}

// Close invalidates every window, releases every platform target and
// closes the event channel. Call it after the worker has exited. Close is
// idempotent.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for id := range c.windows {
		c.broker.Invalidate(id)
	}
	clear(c.windows)
	for t := range c.targets {
		c.platform.ReleaseSurface(t)
	}
	clear(c.targets)
	c.events.Close()
	retrace.Logger().Info("window: controller closed")
}
