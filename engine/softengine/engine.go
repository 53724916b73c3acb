// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softengine

import (
	"fmt"
	"image"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/gg"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/engine"
	"github.com/gogpu/retrace/surface"
)

type phase uint8

const (
	phaseNew phase = iota
	phaseRunning
	phaseStopped
)

// Engine renders frames with gg. Create it with New.
type Engine struct {
	opts options

	mu        sync.Mutex
	log       *slog.Logger
	phase     phase
	cfg       engine.Config
	frames    engine.FrameRange
	snapshots engine.FrameSet
	width     int
	height    int

	dc    *gg.Context
	bound map[surface.WindowID]surface.Handle
	seen  map[surface.WindowID]struct{}

	frame      int
	measured   int
	presented  int
	snapshotsN int
	started    time.Time
	lastFrame  time.Time
	frameTimes []float64
}

// New creates an engine.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		opts:  o,
		bound: make(map[surface.WindowID]surface.Handle),
		seen:  make(map[surface.WindowID]struct{}),
	}
}

// SetLogger sets the logger used by the engine. Nil selects the retrace
// logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	e.mu.Lock()
	e.log = l
	e.mu.Unlock()
}

func (e *Engine) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return retrace.Logger()
}

// Init validates cfg and allocates the offscreen context.
func (e *Engine) Init(cfg engine.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.phase {
	case phaseRunning:
		return fmt.Errorf("softengine: already initialized")
	case phaseStopped:
		return engine.ErrStopped
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	frames, err := cfg.FrameRange()
	if err != nil {
		return err
	}
	var snaps engine.FrameSet
	if cfg.SnapshotCallset != "" && cfg.SnapshotPrefix != "" {
		if snaps, err = engine.ParseFrameSet(cfg.SnapshotCallset); err != nil {
			return err
		}
	}

	w, h, ok := cfg.RenderSize()
	if !ok {
		w, h = e.opts.width, e.opts.height
	}

	e.cfg = cfg
	e.frames = frames
	e.snapshots = snaps
	e.width, e.height = w, h
	e.dc = gg.NewContext(w, h)
	e.phase = phaseRunning

	e.logger().Info("softengine: initialized",
		"file", cfg.TracePath(), "frames", frames, "width", w, "height", h,
		"override", cfg.OverrideResolution, "offscreen", cfg.Offscreen)
	return nil
}

// QueryOrientation reports portrait when the window is taller than wide.
func (e *Engine) QueryOrientation() engine.Orientation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == phaseNew {
		return engine.OrientationUnspecified
	}
	w, h := e.cfg.Width, e.cfg.Height
	if w <= 0 || h <= 0 {
		w, h = e.opts.width, e.opts.height
	}
	return engine.OrientationFor(w, h)
}

// SetSurface binds, replaces or unbinds a window's surface.
func (e *Engine) SetSurface(h surface.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRunning(); err != nil {
		return err
	}
	switch {
	case h.IsNone():
		clear(e.bound)
		e.logger().Debug("softengine: all surfaces unbound")
		return nil
	case h.Gone():
		delete(e.bound, h.Window)
		e.logger().Debug("softengine: surface unbound", "window", h.Window)
		return nil
	}

	t, ok := h.Ref.(*surface.ImageTarget)
	if !ok {
		return fmt.Errorf("%w: %T", engine.ErrUnsupportedSurface, h.Ref)
	}
	if t.Released() {
		return fmt.Errorf("%w: window %d target already released", engine.ErrUnsupportedSurface, h.Window)
	}
	e.bound[h.Window] = h
	e.seen[h.Window] = struct{}{}
	e.logger().Debug("softengine: surface bound", "handle", h)
	return nil
}

// Step renders the next frame. It returns false once the workload or the
// measured range is exhausted.
func (e *Engine) Step() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRunning(); err != nil {
		return false, err
	}

	last := min(e.opts.frameCount, e.frames.End)
	if e.frame >= last {
		return false, nil
	}

	n := e.frame
	e.frame++
	if err := e.render(n); err != nil {
		return true, err
	}
	if !e.cfg.Offscreen {
		e.present()
	}

	if e.frames.Contains(n) {
		now := e.opts.now()
		if e.measured == 0 {
			e.started = now
		} else if e.cfg.MeasurePerFrame {
			e.frameTimes = append(e.frameTimes, now.Sub(e.lastFrame).Seconds())
		}
		e.lastFrame = now
		e.measured++
	}

	if !e.snapshots.Empty() && e.snapshots.Contains(n) {
		path := fmt.Sprintf("%s%04d.png", e.cfg.SnapshotPrefix, n)
		if err := e.dc.SavePNG(path); err != nil {
			return true, fmt.Errorf("softengine: snapshot frame %d: %w", n, err)
		}
		e.snapshotsN++
	}
	return e.frame < last, nil
}

// Stop releases the context and reports the run.
func (e *Engine) Stop() (engine.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRunning(); err != nil {
		return engine.Result{}, err
	}
	e.phase = phaseStopped
	clear(e.bound)

	res := engine.Result{
		File:    e.cfg.File,
		Frames:  e.measured,
		Windows: len(e.seen),
		Started: e.started,
		Extra: map[string]any{
			"renderWidth":  e.width,
			"renderHeight": e.height,
			"presented":    e.presented,
			"snapshots":    e.snapshotsN,
		},
	}
	if e.measured > 0 {
		res.Elapsed = e.lastFrame.Sub(e.started)
	}
	if e.cfg.MeasurePerFrame {
		res.FrameTimes = slices.Clone(e.frameTimes)
	}
	res.ComputeFPS()

	err := e.dc.Close()
	e.dc = nil
	e.logger().Info("softengine: stopped", "frames", res.Frames, "fps", res.FPS, "windows", res.Windows)
	return res, err
}

// Bound returns the ids of the windows that currently have a surface.
func (e *Engine) Bound() []surface.WindowID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.bound))
}

// Frame returns the number of frames rendered so far.
func (e *Engine) Frame() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

func (e *Engine) checkRunning() error {
	switch e.phase {
	case phaseNew:
		return engine.ErrNotInitialized
	case phaseStopped:
		return engine.ErrStopped
	}
	return nil
}

// render draws frame n of the synthetic workload into the offscreen context.
func (e *Engine) render(n int) error {
	dc := e.dc
	w, h := float64(e.width), float64(e.height)

	dc.ClearWithColor(gg.RGB(0.08, 0.08, 0.1))

	const bars = 8
	bw := w / bars
	for i := range bars {
		hue := math.Mod(float64(n*3+i*45), 360)
		dc.SetColor(gg.HSL(hue, 0.6, 0.5).Color())
		bh := h * (0.25 + 0.5*(1+math.Sin(float64(n)/10+float64(i)))/2)
		dc.DrawRectangle(float64(i)*bw, h-bh, bw*0.9, bh)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("softengine: frame %d: %w", n, err)
		}
	}

	r := math.Min(w, h) / 8
	angle := float64(n) * math.Pi / 30
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawCircle(w/2+math.Cos(angle)*w/4, h/2+math.Sin(angle)*h/4, r)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("softengine: frame %d: %w", n, err)
	}
	return nil
}

// present copies the rendered frame into every bound target, scaling when
// sizes differ.
func (e *Engine) present() {
	if len(e.bound) == 0 {
		return
	}
	src := e.dc.Image()
	for _, h := range e.bound {
		t := h.Ref.(*surface.ImageTarget)
		if t.Released() {
			e.logger().Warn("softengine: bound target released", "window", h.Window)
			continue
		}
		dst := t.Image()
		if dst.Bounds().Size() == src.Bounds().Size() {
			draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
		} else {
			draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
		e.presented++
	}
}

// Ensure Engine implements engine.Facade and accepts a logger.
var (
	_ engine.Facade        = (*Engine)(nil)
	_ retrace.LoggerSetter = (*Engine)(nil)
)
