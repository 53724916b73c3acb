// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChannelFIFO(t *testing.T) {
	c := NewChannel()
	want := []Event{
		{Type: Create, Window: 0, Width: 10, Height: 10, Seq: 1},
		{Type: Create, Window: 1, Width: 20, Height: 20, Seq: 2},
		{Type: Destroy, Window: 0, Seq: 3},
	}
	for _, ev := range want {
		if err := c.Post(ev); err != nil {
			t.Fatalf("Post(%v) = %v", ev, err)
		}
	}
	if got := c.Len(); got != len(want) {
		t.Errorf("Len() = %d, want %d", got, len(want))
	}
	if diff := cmp.Diff(want, c.Drain()); diff != "" {
		t.Errorf("Drain() mismatch (-want +got):\n%s", diff)
	}
	if got := c.Drain(); got != nil {
		t.Errorf("second Drain() = %v, want nil", got)
	}
	if got := c.Posted(); got != 3 {
		t.Errorf("Posted() = %d, want 3", got)
	}
}

func TestChannelReadyCoalesces(t *testing.T) {
	c := NewChannel()
	_ = c.Post(Event{Type: Create, Seq: 1})
	_ = c.Post(Event{Type: Resize, Seq: 2})

	select {
	case <-c.Ready():
	default:
		t.Fatal("Ready() not signalled after Post")
	}
	select {
	case <-c.Ready():
		t.Fatal("Ready() signalled twice for coalesced posts")
	default:
	}
	if got := len(c.Drain()); got != 2 {
		t.Errorf("Drain() returned %d events, want 2", got)
	}
}

func TestChannelClose(t *testing.T) {
	c := NewChannel()
	_ = c.Post(Event{Type: Create, Seq: 1})
	c.Close()

	if err := c.Post(Event{Type: Destroy, Seq: 2}); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Post after Close = %v, want ErrChannelClosed", err)
	}
	if got := c.Drain(); len(got) != 1 {
		t.Errorf("Drain after Close = %v, want the queued event", got)
	}
}

func TestChannelConcurrentOrder(t *testing.T) {
	const n = 500
	c := NewChannel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			_ = c.Post(Event{Type: Resize, Seq: uint64(i)})
		}
	}()

	var got []uint64
	for len(got) < n {
		<-c.Ready()
		for _, ev := range c.Drain() {
			got = append(got, ev.Seq)
		}
	}
	wg.Wait()

	for i, seq := range got {
		if seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d, want %d", i, seq, i+1)
		}
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Type: Create, Window: 1, Width: 4, Height: 3, Seq: 7}, "create(1 4x3 seq=7)"},
		{Event{Type: Resize, Window: 0, Width: 8, Height: 8, Seq: 2}, "resize(0 8x8 seq=2)"},
		{Event{Type: Destroy, Window: 2, Seq: 9}, "destroy(2 seq=9)"},
		{Event{Type: EventType(9)}, "EventType(9)(0 0x0 seq=0)"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
