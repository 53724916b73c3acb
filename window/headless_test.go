// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"testing"
	"time"

	"github.com/gogpu/retrace/surface"
)

func TestHeadlessDeliversOnLoop(t *testing.T) {
	l := startLoop(t)
	h := NewHeadless(l)

	got := make(chan surface.Target, 1)
	_ = l.Sync(func() {
		h.CreateSurface(SurfaceSpec{Window: 0, Width: 6, Height: 4, Format: surface.FormatBGRA8}, func(tg surface.Target) {
			got <- tg
		})
	})

	select {
	case tg := <-got:
		if tg.Width() != 6 || tg.Height() != 4 || tg.Format() != surface.FormatBGRA8 {
			t.Errorf("target = %dx%d %v, want 6x4 BGRA8", tg.Width(), tg.Height(), tg.Format())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("surface never delivered")
	}
	if h.Created() != 1 || h.Live() != 1 {
		t.Errorf("Created() = %d, Live() = %d; want 1, 1", h.Created(), h.Live())
	}
}

func TestHeadlessDelay(t *testing.T) {
	l := startLoop(t)
	h := NewHeadless(l, WithDelay(20*time.Millisecond))

	start := time.Now()
	got := make(chan struct{})
	l.Post(func() {
		h.CreateSurface(SurfaceSpec{Width: 1, Height: 1}, func(surface.Target) { close(got) })
	})
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed surface never delivered")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("delivered after %v, want at least 20ms", elapsed)
	}
}

func TestHeadlessManualDelivery(t *testing.T) {
	l := startLoop(t)
	h := NewHeadless(l, WithManualDelivery())

	delivered := 0
	_ = l.Sync(func() {
		h.CreateSurface(SurfaceSpec{Window: 2, Width: 3, Height: 3, Seq: 5}, func(surface.Target) { delivered++ })
	})
	_ = l.Sync(func() {})
	if delivered != 0 {
		t.Fatal("surface delivered before Deliver")
	}
	held := h.Held()
	if len(held) != 1 || held[0].Window != 2 || held[0].Seq != 5 {
		t.Fatalf("Held() = %v, want one spec for window 2 seq 5", held)
	}

	if h.Deliver(1) {
		t.Error("Deliver(1) = true with nothing held for window 1")
	}
	if !h.Deliver(2) {
		t.Fatal("Deliver(2) = false")
	}
	_ = l.Sync(func() {})
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if len(h.Held()) != 0 {
		t.Errorf("Held() = %v after Deliver, want empty", h.Held())
	}
}

func TestHeadlessReleaseCountsOnce(t *testing.T) {
	l := startLoop(t)
	h := NewHeadless(l, WithManualDelivery())
	_ = l.Sync(func() {
		h.CreateSurface(SurfaceSpec{Window: 0, Width: 2, Height: 2}, func(surface.Target) {})
	})

	tg := surface.NewImageTarget(2, 2, surface.FormatRGBA8)
	h.ReleaseSurface(tg)
	if h.Released() != 0 {
		t.Errorf("Released() = %d after releasing a foreign target, want 0", h.Released())
	}
	if !tg.Released() {
		t.Error("foreign ImageTarget not marked released")
	}

	var own surface.Target
	h.Deliver(0)
	_ = l.Sync(func() {})
	_ = l.Sync(func() {
		h.CreateSurface(SurfaceSpec{Window: 1, Width: 2, Height: 2}, func(tg surface.Target) { own = tg })
	})
	h.Deliver(1)
	_ = l.Sync(func() {})
	if own == nil {
		t.Fatal("surface for window 1 not delivered")
	}
	h.ReleaseSurface(own)
	h.ReleaseSurface(own)
	if h.Released() != 1 || h.Live() != 1 {
		t.Errorf("Released() = %d, Live() = %d; want 1, 1", h.Released(), h.Live())
	}
}

func TestHeadlessDeviceProvider(t *testing.T) {
	h := NewHeadless(NewLoop(), WithPreferredFormat(surface.FormatBGRA8))
	if got := h.DeviceProvider().SurfaceFormat(); got != surface.FormatBGRA8 {
		t.Errorf("SurfaceFormat() = %v, want BGRA8", got)
	}
	if got := NewHeadless(NewLoop()).DeviceProvider().SurfaceFormat(); got != surface.FormatRGBA8 {
		t.Errorf("default SurfaceFormat() = %v, want RGBA8", got)
	}
}
