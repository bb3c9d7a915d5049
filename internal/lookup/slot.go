// Package lookup provides the building blocks for asynchronous lookups that
// the wizard issues on behalf of the user: one cancelable request slot per
// request class, and a debouncer for keystroke-driven queries.
package lookup

import (
	"context"
	"sync"
)

// Slot holds at most one outstanding request of a given class. Beginning a
// new request cancels the one in flight, so a superseded response can be
// recognized by its canceled context alone.
type Slot struct {
	name    string
	mu      sync.Mutex
	current *Ticket
}

// NewSlot creates an empty slot. The name is used in logs only.
func NewSlot(name string) *Slot {
	return &Slot{name: name}
}

// Name returns the request class name.
func (s *Slot) Name() string { return s.name }

// Ticket identifies one request issued through a slot.
type Ticket struct {
	slot   *Slot
	ctx    context.Context
	cancel context.CancelFunc
}

// Begin cancels any outstanding request and returns a ticket for a new one.
func (s *Slot) Begin(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)
	t := &Ticket{slot: s, ctx: ctx, cancel: cancel}

	s.mu.Lock()
	prev := s.current
	s.current = t
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return t
}

// Cancel aborts the outstanding request, if any.
func (s *Slot) Cancel() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
}

// Pending reports whether a request is outstanding.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Context returns the context the request must run under.
func (t *Ticket) Context() context.Context { return t.ctx }

// Live reports whether the ticket has not been superseded or canceled.
func (t *Ticket) Live() bool { return t.ctx.Err() == nil }

// Finish releases the ticket once its result has been applied (or dropped).
func (t *Ticket) Finish() {
	t.slot.mu.Lock()
	if t.slot.current == t {
		t.slot.current = nil
	}
	t.slot.mu.Unlock()
	t.cancel()
}
