package wizard

import "sync"

// Part is a set of state sections touched by a change.
type Part uint16

const (
	PartNav Part = 1 << iota
	PartArea
	PartFields
	PartVisible
	PartMap
	PartSuggest
	PartPaper
	PartOptions
	PartTitle
	PartLanguage
	PartSummary
	PartNotice

	PartAll Part = 1<<iota - 1
)

// Has reports whether p contains every part of q.
func (p Part) Has(q Part) bool { return p&q == q }

// Subscription receives the parts changed by asynchronous completions.
// Changes published while the subscriber is busy are merged, never dropped.
type Subscription struct {
	C       chan struct{}
	mu      sync.Mutex
	pending Part
}

// Take returns and clears the accumulated parts.
func (s *Subscription) Take() Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = 0
	return p
}

func (s *Subscription) add(p Part) {
	s.mu.Lock()
	s.pending |= p
	s.mu.Unlock()
	select {
	case s.C <- struct{}{}:
	default:
	}
}

// Bus is a fan-out of session changes to the open event streams.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Publish notifies every subscriber without blocking.
func (b *Bus) Publish(p Part) {
	if p == 0 {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		s.add(p)
	}
}

// Subscribe registers a new subscriber.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{C: make(chan struct{}, 1)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}
