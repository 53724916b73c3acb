// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package worker

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/retrace/engine"
	"github.com/gogpu/retrace/surface"
)

// fakeEngine records the calls the worker makes.
type fakeEngine struct {
	mu          sync.Mutex
	calls       []string
	surfaces    []surface.Handle
	steps       int
	stops       int
	initErr     error
	stopErr     error
	stopPanic   bool
	orientation engine.Orientation

	// step decides the outcome of step n (0-based). Nil steps forever.
	step func(n int) (bool, error)

	// reject, if set, decides whether SetSurface fails for h. Rejected
	// handles are still recorded.
	reject func(h surface.Handle) error
}

func (e *fakeEngine) record(call string) {
	e.mu.Lock()
	e.calls = append(e.calls, call)
	e.mu.Unlock()
}

func (e *fakeEngine) Init(engine.Config) error {
	e.record("init")
	return e.initErr
}

func (e *fakeEngine) Step() (bool, error) {
	e.mu.Lock()
	n := e.steps
	e.steps++
	fn := e.step
	e.mu.Unlock()
	if fn == nil {
		time.Sleep(100 * time.Microsecond)
		return true, nil
	}
	return fn(n)
}

func (e *fakeEngine) Stop() (engine.Result, error) {
	e.mu.Lock()
	e.stops++
	e.calls = append(e.calls, "stop")
	panicking := e.stopPanic
	e.mu.Unlock()
	if panicking {
		panic("stop exploded")
	}
	return engine.Result{File: "fake", Frames: 7}, e.stopErr
}

func (e *fakeEngine) SetSurface(h surface.Handle) error {
	e.mu.Lock()
	e.surfaces = append(e.surfaces, h)
	e.calls = append(e.calls, fmt.Sprintf("setSurface(%v)", h))
	reject := e.reject
	e.mu.Unlock()
	if reject != nil {
		return reject(h)
	}
	return nil
}

func (e *fakeEngine) QueryOrientation() engine.Orientation {
	return e.orientation
}

func (e *fakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) Surfaces() []surface.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]surface.Handle(nil), e.surfaces...)
}

func (e *fakeEngine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

// fakeHost records orientation requests.
type fakeHost struct {
	mu      sync.Mutex
	current engine.Orientation
	history []engine.Orientation
}

func (h *fakeHost) RequestedOrientation() engine.Orientation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHost) SetRequestedOrientation(o engine.Orientation) {
	h.mu.Lock()
	h.current = o
	h.history = append(h.history, o)
	h.mu.Unlock()
}

type errSource struct{ err error }

func (s errSource) Config() (engine.Config, error) { return engine.Config{}, s.err }

func testSource() engine.ConfigSource {
	cfg := engine.DefaultConfig()
	cfg.File = "fake.pat"
	return engine.StaticSource(cfg)
}

var errBoom = errors.New("boom")

// eventually polls cond until it holds or fails the test.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitExited(t *testing.T, w *Worker) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not exit; state %v", w.State())
	}
}
