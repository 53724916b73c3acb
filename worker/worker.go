// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/broker"
	"github.com/gogpu/retrace/engine"
	"github.com/gogpu/retrace/surface"
	"github.com/gogpu/retrace/window"
)

// Stats is a snapshot of worker counters.
type Stats struct {
	// Steps is the number of Step calls.
	Steps uint64

	// StepErrors is the number of Step calls that failed or panicked.
	StepErrors uint64

	// Requests is the number of broker requests made.
	Requests uint64

	// SurfaceChanges is the number of SetSurface calls, including unbinds.
	SurfaceChanges uint64
}

// Worker drives one engine on a dedicated goroutine.
type Worker struct {
	eng    engine.Facade
	src    engine.ConfigSource
	broker *broker.Broker
	events *window.Channel
	opts   options

	ctx    context.Context
	cancel context.CancelFunc

	started  atomic.Bool
	mu       sync.Mutex
	state    State
	done     chan struct{}
	doneOnce sync.Once
	result   engine.Result
	err      error

	// bound is owned by the worker goroutine.
	bound  map[surface.WindowID]surface.Handle
	format surface.Format
	log    *slog.Logger

	steps          atomic.Uint64
	stepErrors     atomic.Uint64
	requests       atomic.Uint64
	surfaceChanges atomic.Uint64
}

// New creates a worker in the Created state. It does not touch the engine.
func New(eng engine.Facade, src engine.ConfigSource, b *broker.Broker, events *window.Channel, opts ...Option) *Worker {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eng:    eng,
		src:    src,
		broker: b,
		events: events,
		opts:   o,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		bound:  make(map[surface.WindowID]surface.Handle),
	}
}

// Start builds the configuration, moves the worker to Running and spawns
// its goroutine. It returns once the engine has been initialized.
//
// A configuration error moves the worker straight to Exited; the returned
// error wraps engine.ErrConfig and the engine is never called. An Init
// failure returns an error wrapping ErrInit after the worker has exited.
func (w *Worker) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	cfg, cfgErr := w.src.Config()
	if cfgErr != nil && !errors.Is(cfgErr, engine.ErrConfig) {
		cfgErr = fmt.Errorf("%w: %w", engine.ErrConfig, cfgErr)
	}

	w.mu.Lock()
	if w.state != Created {
		w.mu.Unlock()
		return ErrExited
	}
	if cfgErr != nil {
		w.state = Exited
		w.err = cfgErr
		w.result = engine.Result{SessionID: w.opts.sessionID, Error: cfgErr.Error()}
		w.mu.Unlock()
		w.closeDone()
		retrace.Logger().Warn("worker: configuration failed", "session", w.opts.sessionID, "err", cfgErr)
		return cfgErr
	}
	w.state = Running
	w.mu.Unlock()

	w.format = w.opts.format
	if w.format == surface.FormatUndefined {
		w.format = cfg.ColorFormat()
	}

	initc := make(chan error, 1)
	go w.run(cfg, initc)

	if err := <-initc; err != nil {
		<-w.done
		return err
	}
	return nil
}

// RequestStop asks the worker to exit and waits until it has. It is safe to
// call from any goroutine except the worker's own, any number of times. On
// a worker that was never started it moves Created to Exited directly.
func (w *Worker) RequestStop() {
	w.mu.Lock()
	switch w.state {
	case Created:
		w.state = Exited
		w.mu.Unlock()
		w.cancel()
		w.closeDone()
		return
	case Running:
		w.state = ExitRequested
		retrace.Logger().Info("worker: exit requested", "session", w.opts.sessionID)
	}
	w.mu.Unlock()

	w.cancel()
	<-w.done
}

// State returns the current state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done is closed when the worker reaches Exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Result returns the final result. It is complete once Done is closed.
func (w *Worker) Result() engine.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Err returns the error that ended the run, if any: a configuration or
// init failure, or a failing Stop.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Steps:          w.steps.Load(),
		StepErrors:     w.stepErrors.Load(),
		Requests:       w.requests.Load(),
		SurfaceChanges: w.surfaceChanges.Load(),
	}
}

func (w *Worker) closeDone() {
	w.doneOnce.Do(func() { close(w.done) })
}

func (w *Worker) run(cfg engine.Config, initc chan<- error) {
	defer w.closeDone()

	if w.opts.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	w.log = retrace.Logger()
	if w.opts.sessionID != "" {
		w.log = w.log.With("session", w.opts.sessionID)
	}
	retrace.PropagateLogger(w.eng)

	if err := callErr(func() error { return w.eng.Init(cfg) }); err != nil {
		err = fmt.Errorf("%w: %w", ErrInit, err)
		w.log.Warn("worker: init failed", "err", err)
		res, _ := w.stopEngine()
		w.finish(res, err)
		initc <- err
		return
	}
	initc <- nil
	w.log.Info("worker: running", "file", cfg.File)

	restore := w.applyOrientation()

	w.loop()

	w.unbindAll()
	res, err := w.stopEngine()
	restore()
	w.finish(res, err)
}

// loop steps the engine until it is done or an exit is requested.
func (w *Worker) loop() {
	for {
		if w.exitRequested() {
			return
		}
		if !w.applyEvents() {
			return
		}
		if w.exitRequested() {
			return
		}
		if !w.step() {
			w.log.Info("worker: engine finished")
			return
		}
	}
}

func (w *Worker) exitRequested() bool {
	return w.ctx.Err() != nil
}

// applyEvents handles every queued window event. It returns false when an
// exit was requested while waiting for a surface.
func (w *Worker) applyEvents() bool {
	for _, ev := range w.events.Drain() {
		switch ev.Type {
		case window.Create, window.Resize:
			if !w.acquire(ev) {
				return false
			}
		case window.Destroy:
			w.detach(ev.Window)
		}
	}
	return true
}

// acquire obtains a surface answering ev and binds it.
func (w *Worker) acquire(ev window.Event) bool {
	prev, hadPrev := w.bound[ev.Window]
	if hadPrev && prev.Seq >= ev.Seq {
		return true
	}

	w.requests.Add(1)
	h, err := w.broker.RequestAndWait(w.ctx, broker.Request{
		Window: ev.Window,
		Width:  ev.Width,
		Height: ev.Height,
		Format: w.format,
		MinSeq: ev.Seq,
	})
	switch {
	case err == nil:
	case errors.Is(err, broker.ErrStopped):
		return false
	default:
		w.log.Info("worker: surface request cancelled", "window", ev.Window, "seq", ev.Seq, "err", err)
		return true
	}

	if err := w.setSurface(h); err != nil {
		w.log.Warn("worker: engine rejected surface", "handle", h, "err", err)
		w.broker.Retire(h)
		return true
	}
	w.bound[ev.Window] = h
	if hadPrev && !surface.SameTarget(prev.Ref, h.Ref) {
		w.broker.Retire(prev)
	}
	return true
}

// detach unbinds a destroyed window.
func (w *Worker) detach(id surface.WindowID) {
	h, ok := w.bound[id]
	if !ok {
		return
	}
	if err := w.setSurface(surface.Tombstone(id)); err != nil {
		w.log.Warn("worker: detach failed", "window", id, "err", err)
	}
	delete(w.bound, id)
	w.broker.Retire(h)
}

func (w *Worker) unbindAll() {
	if err := w.setSurface(surface.None); err != nil {
		w.log.Warn("worker: unbind failed", "err", err)
	}
	for id, h := range w.bound {
		w.broker.Retire(h)
		delete(w.bound, id)
	}
}

func (w *Worker) setSurface(h surface.Handle) error {
	w.surfaceChanges.Add(1)
	return callErr(func() error { return w.eng.SetSurface(h) })
}

// step runs one engine step. Errors and panics are logged and the loop
// continues.
func (w *Worker) step() bool {
	w.steps.Add(1)
	var more bool
	err := callErr(func() error {
		var err error
		more, err = w.eng.Step()
		return err
	})
	if err != nil {
		w.stepErrors.Add(1)
		w.log.Debug("worker: step failed", "err", err)
		return true
	}
	return more
}

func (w *Worker) stopEngine() (engine.Result, error) {
	var res engine.Result
	err := callErr(func() error {
		var err error
		res, err = w.eng.Stop()
		return err
	})
	if err != nil {
		w.log.Warn("worker: engine stop failed", "err", err)
	}
	return res, err
}

// applyOrientation asks the host for the engine's orientation and returns
// a function restoring the previous one.
func (w *Worker) applyOrientation() func() {
	h := w.opts.host
	if h == nil {
		return func() {}
	}
	prev := h.RequestedOrientation()
	o := w.eng.QueryOrientation()
	w.log.Info("worker: orientation", "requested", o, "previous", prev)
	if o != engine.OrientationUnspecified {
		h.SetRequestedOrientation(o)
	}
	return func() { h.SetRequestedOrientation(prev) }
}

func (w *Worker) finish(res engine.Result, err error) {
	res.SessionID = w.opts.sessionID
	if err != nil && res.Error == "" {
		res.Error = err.Error()
	}

	w.mu.Lock()
	w.state = Exited
	w.result = res
	w.err = err
	w.mu.Unlock()

	w.log.Info("worker: exited", "frames", res.Frames, "fps", res.FPS, "err", err)
	if w.opts.onResult != nil {
		w.opts.onResult(res)
	}
}

// callErr calls fn, turning a panic into an error wrapping ErrPanic.
func callErr(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
