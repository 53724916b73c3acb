// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/broker"
	"github.com/gogpu/retrace/config"
	"github.com/gogpu/retrace/engine"
	"github.com/gogpu/retrace/surface"
	"github.com/gogpu/retrace/window"
	"github.com/gogpu/retrace/worker"
)

// ErrRunning is returned by Run on a session that was already run.
var ErrRunning = errors.New("host: session already run")

// Session is one retrace run.
type Session struct {
	id       string
	settings config.Settings
	opts     options

	loop     *window.Loop
	broker   *broker.Broker
	events   *window.Channel
	platform window.Platform
	ctrl     *window.Controller
	worker   *worker.Worker
	display  *display

	runOnce sync.Once
}

// NewSession wires a session around eng. It does not start anything.
func NewSession(s config.Settings, eng engine.Facade, opts ...Option) (*Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}

	ss := &Session{
		id:       o.sessionID,
		settings: s,
		opts:     o,
		loop:     window.NewLoop(),
		broker:   broker.New(broker.WithTimeout(s.RequestTimeout)),
		events:   window.NewChannel(),
	}
	if o.platform != nil {
		ss.platform = o.platform(ss.loop)
	} else {
		ss.platform = window.NewHeadless(ss.loop)
	}

	copts := []window.ControllerOption{window.WithSingleWindow(s.SingleWindow)}
	if s.Overlay {
		copts = append(copts, window.WithOverlay(s.Transparent))
	}
	ss.ctrl = window.NewController(ss.loop, ss.broker, ss.events, ss.platform, copts...)

	ss.display = &display{s: ss}
	ss.worker = worker.New(eng, s.Source(), ss.broker, ss.events,
		worker.WithHost(ss.display),
		worker.WithSessionID(ss.id),
		worker.WithLockOSThread(o.lockOSThread),
	)
	return ss, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Worker returns the session's worker.
func (s *Session) Worker() *worker.Worker {
	return s.worker
}

// Run executes the session until the engine finishes or ctx is done and
// returns the result. The returned error is the worker's error, joined with
// any failure to persist the result. Run may be called once.
func (s *Session) Run(ctx context.Context) (engine.Result, error) {
	err := ErrRunning
	var res engine.Result
	s.runOnce.Do(func() {
		res, err = s.run(ctx)
	})
	return res, err
}

func (s *Session) run(ctx context.Context) (engine.Result, error) {
	log := retrace.Logger().With("session", s.id)

	// The loop outlives ctx so the shutdown work posted to it still runs.
	go func() {
		if err := s.loop.Run(context.Background()); err != nil {
			log.Warn("host: ui loop", "err", err)
		}
	}()

	if err := s.loop.Sync(s.openWindows); err != nil {
		log.Warn("host: open windows", "err", err)
	}

	if err := s.worker.Start(); err != nil {
		log.Warn("host: worker start", "err", err)
	} else {
		select {
		case <-s.worker.Done():
		case <-ctx.Done():
			log.Info("host: cancelled", "err", ctx.Err())
		}
	}
	s.shutdown()

	res := s.worker.Result()
	err := s.worker.Err()
	if s.opts.store != nil {
		// Persist even when ctx is gone; the run itself is what was
		// cancelled.
		if serr := s.opts.store.Save(context.WithoutCancel(ctx), res); serr != nil {
			err = errors.Join(err, fmt.Errorf("host: save result: %w", serr))
		}
	}
	log.Info("host: session done", "frames", res.Frames, "fps", res.FPS, "err", err)
	return res, err
}

func (s *Session) openWindows() {
	for i := range s.settings.Windows {
		id := surface.WindowID(i)
		if err := s.ctrl.OnWindowNeeded(id, s.settings.WindowWidth, s.settings.WindowHeight); err != nil {
			retrace.Logger().Warn("host: open window", "window", id, "err", err)
		}
	}
}

func (s *Session) shutdown() {
	s.worker.RequestStop()
	if err := s.loop.Sync(s.ctrl.Close); err != nil {
		retrace.Logger().Warn("host: controller close", "err", err)
	}
	s.broker.Close()
	s.loop.Quit()
	<-s.loop.Done()
}

// Stop asks a running session to stop and waits for the worker to exit.
// Run then completes the shutdown.
func (s *Session) Stop() {
	s.worker.RequestStop()
}

// OpenWindow opens another window while the session runs.
func (s *Session) OpenWindow(id surface.WindowID, width, height int) error {
	return s.onLoop(func() error { return s.ctrl.OnWindowNeeded(id, width, height) })
}

// ResizeWindow resizes an open window.
func (s *Session) ResizeWindow(id surface.WindowID, width, height int) error {
	return s.onLoop(func() error { return s.ctrl.OnWindowResized(id, width, height) })
}

// CloseWindow closes an open window.
func (s *Session) CloseWindow(id surface.WindowID) error {
	return s.onLoop(func() error { return s.ctrl.OnWindowGone(id) })
}

// Windows returns a snapshot of the open windows.
func (s *Session) Windows() ([]window.Info, error) {
	var infos []window.Info
	err := s.loop.Sync(func() { infos = s.ctrl.Windows() })
	return infos, err
}

func (s *Session) onLoop(fn func() error) error {
	var err error
	if serr := s.loop.Sync(func() { err = fn() }); serr != nil {
		return serr
	}
	return err
}
