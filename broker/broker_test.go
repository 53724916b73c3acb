// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/retrace/surface"
)

type result struct {
	h   surface.Handle
	err error
}

// request runs RequestAndWait on its own goroutine and returns a channel
// delivering the outcome.
func request(ctx context.Context, b *Broker, req Request) <-chan result {
	ch := make(chan result, 1)
	go func() {
		h, err := b.RequestAndWait(ctx, req)
		ch <- result{h, err}
	}()
	return ch
}

// waitPending blocks until id has a pending request.
func waitPending(t *testing.T, b *Broker, id surface.WindowID) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := b.Pending(id); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no pending request for window %d", id)
}

// waitResult returns the outcome or fails after a bounded wait.
func waitResult(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("RequestAndWait did not return")
		return result{}
	}
}

// assertBlocked fails if ch delivers within a short grace period.
func assertBlocked(t *testing.T, ch <-chan result) {
	t.Helper()
	select {
	case r := <-ch:
		t.Fatalf("RequestAndWait returned early: %v, %v", r.h, r.err)
	case <-time.After(20 * time.Millisecond):
	}
}

func handle(w, h int, seq uint64) surface.Handle {
	return surface.Handle{
		Ref:    surface.NewImageTarget(w, h, surface.FormatRGBA8),
		Width:  w,
		Height: h,
		Format: surface.FormatRGBA8,
		Seq:    seq,
	}
}

func TestRequestAndWaitBlocksUntilPublish(t *testing.T) {
	b := New()
	if err := b.Register(0, 0); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	ch := request(context.Background(), b, Request{Window: 0, Width: 100, Height: 100, MinSeq: 1})
	waitPending(t, b, 0)
	assertBlocked(t, ch)

	h0 := handle(100, 100, 1)
	if err := b.Publish(0, h0); err != nil {
		t.Fatalf("Publish() = %v", err)
	}
	r := waitResult(t, ch)
	if r.err != nil {
		t.Fatalf("RequestAndWait() error = %v", r.err)
	}
	if r.h.Ref != h0.Ref || r.h.Window != 0 {
		t.Errorf("RequestAndWait() = %v, want the published handle", r.h)
	}
	if _, ok := b.Pending(0); ok {
		t.Error("pending request not cleared by publish")
	}
}

func TestPublishBeforeRequest(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)
	h0 := handle(64, 64, 1)
	if err := b.Publish(0, h0); err != nil {
		t.Fatalf("Publish() = %v", err)
	}

	h, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	if err != nil {
		t.Fatalf("RequestAndWait() error = %v", err)
	}
	if h.Ref != h0.Ref {
		t.Errorf("RequestAndWait() = %v, want %v", h, h0)
	}
}

// Scenario A: create, request, publish H0, destroy; later requests are
// cancelled and never see H0 again.
func TestScenarioCreatePublishDestroy(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)

	ch := request(context.Background(), b, Request{Window: 0, Width: 100, Height: 100, MinSeq: 1})
	waitPending(t, b, 0)
	h0 := handle(100, 100, 1)
	_ = b.Publish(0, h0)
	if r := waitResult(t, ch); r.err != nil || r.h.Ref != h0.Ref {
		t.Fatalf("RequestAndWait() = %v, %v; want H0", r.h, r.err)
	}

	b.Invalidate(0)

	for i := 0; i < 3; i++ {
		h, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
		if !errors.Is(err, ErrWindowGone) {
			t.Fatalf("request %d after destroy: err = %v, want ErrWindowGone", i, err)
		}
		if !h.Gone() || h.Ref != nil {
			t.Fatalf("request %d after destroy returned %v, want tombstone", i, h)
		}
	}
	if _, ok := b.Published(0); ok {
		t.Error("published handle survived Invalidate")
	}
}

// Scenario B: publishing for window 1 must not satisfy a waiter on window 0.
func TestScenarioPublishOtherWindowDoesNotWake(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)
	_ = b.Register(1, 0)

	ch0 := request(context.Background(), b, Request{Window: 0, MinSeq: 1})
	ch1 := request(context.Background(), b, Request{Window: 1, MinSeq: 1})
	waitPending(t, b, 0)
	waitPending(t, b, 1)

	h1 := handle(50, 50, 1)
	_ = b.Publish(1, h1)

	r1 := waitResult(t, ch1)
	if r1.err != nil || r1.h.Ref != h1.Ref {
		t.Fatalf("window 1 got %v, %v; want H1", r1.h, r1.err)
	}
	assertBlocked(t, ch0)
	if _, ok := b.Pending(0); !ok {
		t.Error("window 0 request lost after publish for window 1")
	}

	h0 := handle(100, 100, 1)
	_ = b.Publish(0, h0)
	r0 := waitResult(t, ch0)
	if r0.err != nil || r0.h.Ref != h0.Ref {
		t.Fatalf("window 0 got %v, %v; want H0", r0.h, r0.err)
	}
	if got := b.Stats().Rechecks; got == 0 {
		t.Error("Stats().Rechecks = 0, want the window 0 waiter to have re-checked at least once")
	}
}

func TestSpuriousWakeupsDoNotReturn(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)

	ch := request(context.Background(), b, Request{Window: 0, MinSeq: 1})
	waitPending(t, b, 0)

	for i := 0; i < 10; i++ {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	}
	assertBlocked(t, ch)

	_ = b.Publish(0, handle(10, 10, 1))
	if r := waitResult(t, ch); r.err != nil {
		t.Fatalf("RequestAndWait() error = %v", r.err)
	}
}

// An old handle must never satisfy a request made for a later event.
func TestStaleHandleDoesNotSatisfy(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)
	old := handle(100, 100, 1)
	_ = b.Publish(0, old)

	ch := request(context.Background(), b, Request{Window: 0, Width: 200, Height: 200, MinSeq: 2})
	waitPending(t, b, 0)
	assertBlocked(t, ch)

	resized := handle(200, 200, 2)
	_ = b.Publish(0, resized)
	r := waitResult(t, ch)
	if r.err != nil {
		t.Fatalf("RequestAndWait() error = %v", r.err)
	}
	if r.h.Ref == old.Ref {
		t.Fatal("RequestAndWait returned the pre-resize handle")
	}
	if r.h.Width != 200 || r.h.Seq != 2 {
		t.Errorf("RequestAndWait() = %v, want the 200x200 seq 2 handle", r.h)
	}
}

func TestPublishOlderThanPendingKeepsRequest(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)

	ch := request(context.Background(), b, Request{Window: 0, MinSeq: 3})
	waitPending(t, b, 0)

	_ = b.Publish(0, handle(10, 10, 2))
	assertBlocked(t, ch)
	if _, ok := b.Pending(0); !ok {
		t.Fatal("a publish that does not answer the request cleared it")
	}

	_ = b.Publish(0, handle(10, 10, 3))
	if r := waitResult(t, ch); r.err != nil || r.h.Seq != 3 {
		t.Fatalf("RequestAndWait() = %v, %v; want seq 3", r.h, r.err)
	}
}

func TestAtMostOnePendingPerWindow(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)

	ch := request(context.Background(), b, Request{Window: 0, MinSeq: 1})
	waitPending(t, b, 0)

	_, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	if !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("second request err = %v, want ErrRequestInFlight", err)
	}
	if n := b.PendingCount(); n != 1 {
		t.Errorf("PendingCount() = %d, want 1", n)
	}

	_ = b.Publish(0, handle(1, 1, 1))
	waitResult(t, ch)
	if n := b.PendingCount(); n != 0 {
		t.Errorf("PendingCount() after publish = %d, want 0", n)
	}
}

func TestRequestUnknownWindow(t *testing.T) {
	b := New()
	tests := []surface.WindowID{0, 5, surface.InvalidWindow}
	for _, id := range tests {
		_, err := b.RequestAndWait(context.Background(), Request{Window: id})
		if !errors.Is(err, ErrUnknownWindow) {
			t.Errorf("RequestAndWait(%d) err = %v, want ErrUnknownWindow", id, err)
		}
	}
	if n := b.PendingCount(); n != 0 {
		t.Errorf("PendingCount() = %d, want 0", n)
	}
}

func TestInvalidateWakesWaiter(t *testing.T) {
	b := New()
	_ = b.Register(2, 0)

	ch := request(context.Background(), b, Request{Window: 2, MinSeq: 1})
	waitPending(t, b, 2)
	b.Invalidate(2)

	r := waitResult(t, ch)
	if !errors.Is(r.err, ErrWindowGone) {
		t.Fatalf("err = %v, want ErrWindowGone", r.err)
	}
	if !r.h.Gone() || r.h.Window != 2 {
		t.Errorf("handle = %v, want tombstone for window 2", r.h)
	}
	if _, ok := b.Pending(2); ok {
		t.Error("pending request survived Invalidate")
	}
}

// A destroy followed by an immediate re-create must still cancel the waiter
// that was blocked on the destroyed window.
func TestInvalidateThenRegisterStillCancels(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)

	ch := request(context.Background(), b, Request{Window: 0, MinSeq: 1})
	waitPending(t, b, 0)

	b.mu.Lock()
	e := b.windows[0]
	e.live = false
	e.epoch++
	e.pending = nil
	e.live = true
	e.epoch++
	b.cond.Broadcast()
	b.mu.Unlock()

	r := waitResult(t, ch)
	if !errors.Is(r.err, ErrWindowGone) {
		t.Fatalf("err = %v, want ErrWindowGone", r.err)
	}
}

func TestContextCancelStops(t *testing.T) {
	b := New()
	_ = b.Register(2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	ch := request(ctx, b, Request{Window: 2, MinSeq: 1})
	waitPending(t, b, 2)
	cancel()

	r := waitResult(t, ch)
	if !errors.Is(r.err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", r.err)
	}
	if !errors.Is(r.err, context.Canceled) {
		t.Errorf("err = %v, want it to wrap context.Canceled", r.err)
	}
	if _, ok := b.Pending(2); ok {
		t.Error("pending request survived cancellation")
	}
}

func TestTimeoutAbandons(t *testing.T) {
	b := New(WithTimeout(10 * time.Millisecond))
	_ = b.Register(0, 0)

	h, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	if !errors.Is(err, ErrAbandoned) {
		t.Fatalf("err = %v, want ErrAbandoned", err)
	}
	if !h.Gone() {
		t.Errorf("handle = %v, want tombstone", h)
	}
	if _, ok := b.Pending(0); ok {
		t.Error("pending request survived timeout")
	}
}

func TestCloseWakesWaiters(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)
	_ = b.Register(1, 0)

	ch0 := request(context.Background(), b, Request{Window: 0, MinSeq: 1})
	ch1 := request(context.Background(), b, Request{Window: 1, MinSeq: 1})
	waitPending(t, b, 0)
	waitPending(t, b, 1)

	b.Close()
	b.Close()

	for _, ch := range []<-chan result{ch0, ch1} {
		if r := waitResult(t, ch); !errors.Is(r.err, ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", r.err)
		}
	}
	if err := b.Publish(0, handle(1, 1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	if err := b.Register(3, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Register after Close = %v, want ErrClosed", err)
	}
}

func TestRegister(t *testing.T) {
	b := New()
	if err := b.Register(0, 0); err != nil {
		t.Fatalf("Register(0) = %v", err)
	}
	if err := b.Register(0, 0); !errors.Is(err, ErrWindowExists) {
		t.Errorf("second Register(0) = %v, want ErrWindowExists", err)
	}
	if err := b.Register(surface.InvalidWindow, 0); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("Register(-1) = %v, want ErrUnknownWindow", err)
	}

	_ = b.Publish(0, handle(4, 4, 1))
	b.Invalidate(0)
	if b.Live(0) {
		t.Error("Live(0) = true after Invalidate")
	}
	if err := b.Register(0, 0); err != nil {
		t.Fatalf("Register(0) after Invalidate = %v", err)
	}
	if !b.Live(0) {
		t.Error("Live(0) = false after re-register")
	}
	if _, ok := b.Published(0); ok {
		t.Error("re-registered window inherited the old handle")
	}
}

func TestPublishRejects(t *testing.T) {
	b := New()
	if err := b.Publish(0, handle(1, 1, 1)); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("Publish to unregistered = %v, want ErrUnknownWindow", err)
	}

	_ = b.Register(0, 0)
	_ = b.Publish(0, handle(1, 1, 5))
	if err := b.Publish(0, handle(1, 1, 4)); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Publish older seq = %v, want ErrStaleHandle", err)
	}

	b.Invalidate(0)
	if err := b.Publish(0, handle(1, 1, 6)); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("Publish after Invalidate = %v, want ErrUnknownWindow", err)
	}
}

func TestPublishStampsWindow(t *testing.T) {
	b := New()
	_ = b.Register(3, 0)
	h := handle(8, 8, 1)
	h.Window = 99
	_ = b.Publish(3, h)
	got, ok := b.Published(3)
	if !ok || got.Window != 3 {
		t.Errorf("Published(3) = %v, %v; want window 3", got, ok)
	}
}

func TestRetireHook(t *testing.T) {
	var mu sync.Mutex
	var retired []surface.Handle
	b := New(WithRetireHook(func(h surface.Handle) {
		mu.Lock()
		retired = append(retired, h)
		mu.Unlock()
	}))

	h := handle(2, 2, 1)
	b.Retire(h)
	b.Retire(surface.None)
	b.Retire(surface.Tombstone(1))

	mu.Lock()
	defer mu.Unlock()
	if len(retired) != 1 || retired[0].Ref != h.Ref {
		t.Errorf("retired = %v, want only the live handle", retired)
	}
	if got := b.Stats().Retired; got != 1 {
		t.Errorf("Stats().Retired = %d, want 1", got)
	}
}

func TestSetRetireHook(t *testing.T) {
	b := New()
	b.Retire(handle(1, 1, 1))

	called := false
	b.SetRetireHook(func(surface.Handle) { called = true })
	b.Retire(handle(1, 1, 2))
	if !called {
		t.Error("hook installed by SetRetireHook was not called")
	}
}

func TestStatsCounters(t *testing.T) {
	b := New()
	_ = b.Register(0, 0)
	_ = b.Publish(0, handle(1, 1, 1))
	_, _ = b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	b.Invalidate(0)
	b.Invalidate(0)

	s := b.Stats()
	if s.Requests != 1 || s.Publishes != 1 || s.Invalidations != 1 {
		t.Errorf("Stats() = %+v, want 1 request, 1 publish, 1 invalidation", s)
	}
}

func TestUndeliveredHandleRetiredOnReplace(t *testing.T) {
	var retired []surface.Handle
	b := New(WithRetireHook(func(h surface.Handle) { retired = append(retired, h) }))
	_ = b.Register(0, 0)

	first := handle(10, 10, 1)
	second := handle(20, 20, 2)
	_ = b.Publish(0, first)
	_ = b.Publish(0, second)

	if len(retired) != 1 || retired[0].Ref != first.Ref {
		t.Fatalf("retired = %v, want the first handle", retired)
	}
	if first.Ref.Released() {
		t.Error("broker released the target itself; release belongs to the hook")
	}
}

func TestDeliveredHandleNotRetiredOnReplace(t *testing.T) {
	var retired []surface.Handle
	b := New(WithRetireHook(func(h surface.Handle) { retired = append(retired, h) }))
	_ = b.Register(0, 0)

	_ = b.Publish(0, handle(10, 10, 1))
	if _, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1}); err != nil {
		t.Fatalf("RequestAndWait() = %v", err)
	}
	_ = b.Publish(0, handle(20, 20, 2))

	if len(retired) != 0 {
		t.Errorf("retired = %v, want none; the worker owns delivered handles", retired)
	}
}

func TestRepublishSameTargetNotRetired(t *testing.T) {
	var retired int
	b := New(WithRetireHook(func(surface.Handle) { retired++ }))
	_ = b.Register(0, 0)

	h := handle(10, 10, 1)
	_ = b.Publish(0, h)
	h.Seq = 2
	_ = b.Publish(0, h)

	if retired != 0 {
		t.Errorf("retired %d times, want 0", retired)
	}
}

func TestUndeliveredHandleRetiredOnInvalidate(t *testing.T) {
	var retired []surface.Handle
	b := New(WithRetireHook(func(h surface.Handle) { retired = append(retired, h) }))
	_ = b.Register(0, 0)

	h := handle(10, 10, 1)
	_ = b.Publish(0, h)
	b.Invalidate(0)

	if len(retired) != 1 || retired[0].Ref != h.Ref {
		t.Errorf("retired = %v, want the published handle", retired)
	}
}

func TestRequestPredatingRegistration(t *testing.T) {
	b := New()
	_ = b.Register(0, 1)
	b.Invalidate(0)
	_ = b.Register(0, 3)
	h3 := handle(10, 10, 3)
	_ = b.Publish(0, h3)

	h, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	if !errors.Is(err, ErrWindowGone) || !h.Gone() {
		t.Fatalf("RequestAndWait(MinSeq 1) = %v, %v; want tombstone, ErrWindowGone", h, err)
	}
	if _, ok := b.Pending(0); ok {
		t.Error("request for the old window left pending")
	}

	h, err = b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 3})
	if err != nil || h.Ref != h3.Ref {
		t.Errorf("RequestAndWait(MinSeq 3) = %v, %v; want the new handle", h, err)
	}
}

func TestRetireWithdrawsDeliveredHandle(t *testing.T) {
	var retired int
	b := New(WithRetireHook(func(surface.Handle) { retired++ }))
	_ = b.Register(0, 1)
	_ = b.Publish(0, handle(10, 10, 1))

	h, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	if err != nil {
		t.Fatalf("RequestAndWait() = %v", err)
	}
	b.Retire(h)
	if retired != 1 {
		t.Errorf("retire hook called %d times, want 1", retired)
	}
	if got, ok := b.Published(0); ok {
		t.Fatalf("Published(0) = %v after Retire, want none", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if h, err := b.RequestAndWait(ctx, Request{Window: 0, MinSeq: 1}); !errors.Is(err, ErrStopped) {
		t.Errorf("RequestAndWait() = %v, %v; want a wait ending in ErrStopped", h, err)
	}
}

func TestRetireKeepsNewerHandle(t *testing.T) {
	b := New()
	_ = b.Register(0, 1)
	_ = b.Publish(0, handle(10, 10, 1))
	old, err := b.RequestAndWait(context.Background(), Request{Window: 0, MinSeq: 1})
	if err != nil {
		t.Fatalf("RequestAndWait() = %v", err)
	}
	next := handle(20, 20, 2)
	_ = b.Publish(0, next)

	b.Retire(old)
	got, ok := b.Published(0)
	if !ok || got.Ref != next.Ref {
		t.Errorf("Published(0) = %v, %v; want the newer handle", got, ok)
	}
}
