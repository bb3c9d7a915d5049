package lookup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSlotBeginCancelsPrevious(t *testing.T) {
	s := NewSlot("search")
	a := s.Begin(context.Background())
	if !a.Live() || !s.Pending() {
		t.Fatal("first ticket should be live and pending")
	}

	b := s.Begin(context.Background())
	if a.Live() {
		t.Fatal("first ticket still live after second Begin")
	}
	if !b.Live() {
		t.Fatal("second ticket should be live")
	}

	// Finishing a stale ticket must not release the current one.
	a.Finish()
	if !s.Pending() || !b.Live() {
		t.Fatal("stale Finish released the current ticket")
	}

	b.Finish()
	if s.Pending() {
		t.Fatal("slot still pending after Finish")
	}
	if b.Live() {
		t.Fatal("finished ticket still live")
	}
}

func TestSlotCancel(t *testing.T) {
	s := NewSlot("papersize")
	tk := s.Begin(context.Background())
	s.Cancel()
	if tk.Live() {
		t.Fatal("ticket live after Cancel")
	}
	if s.Pending() {
		t.Fatal("slot pending after Cancel")
	}
	select {
	case <-tk.Context().Done():
	default:
		t.Fatal("context not done after Cancel")
	}
}

func TestSlotParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := NewSlot("reversegeo")
	tk := s.Begin(parent)
	cancel()
	if tk.Live() {
		t.Fatal("ticket live after parent cancel")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	done := make(chan struct{}, 4)
	fn := func() {
		calls.Add(1)
		done <- struct{}{}
	}

	for i := 0; i < 5; i++ {
		d.Trigger(fn)
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("calls=%d, want 1", n)
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	if !d.Stop() {
		t.Fatal("Stop should report a pending call")
	}
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("calls=%d after Stop, want 0", n)
	}
	if d.Stop() {
		t.Fatal("second Stop reported a pending call")
	}
}
