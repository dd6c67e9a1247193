package hub

import (
	"sync"
	"sync/atomic"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
)

// DefaultCapacity is the per-subscriber queue depth used when New is given a
// non-positive capacity.
const DefaultCapacity = 100

// Hub is a multi-producer, multi-consumer broadcast point for canvas events.
// All methods are safe for concurrent use.
type Hub struct {
	capacity int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one listener's view of the hub.
type Subscription struct {
	hub     *Hub
	ch      chan types.Event
	dropped atomic.Uint64
	closed  bool // guarded by hub.mu
}

// New creates a Hub whose subscribers each buffer up to capacity events.
func New(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Capacity returns the per-subscriber queue depth.
func (h *Hub) Capacity() int { return h.capacity }

// Subscribe registers a new listener. It observes only events published after
// Subscribe returns. Callers must Close the subscription when done.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub: h,
		ch:  make(chan types.Event, h.capacity),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers ev to every live subscription and returns how many it
// reached. With no subscribers it is a no-op.
func (h *Hub) Publish(ev types.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		s.offer(ev)
	}
	return len(h.subs)
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscription and rejects future ones. Safe to call more
// than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		s.closed = true
		close(s.ch)
		delete(h.subs, s)
	}
}

// offer queues ev, evicting the oldest queued event when the buffer is full.
// Called with hub.mu held; the hub is the only sender on s.ch, so after one
// eviction there is room.
func (s *Subscription) offer(ev types.Event) {
	select {
	case s.ch <- ev:
		return
	default:
	}

	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
		// Reader drained the queue in between.
	}

	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// C returns the receive channel. It is closed when the subscription or the
// hub is closed.
func (s *Subscription) C() <-chan types.Event { return s.ch }

// TakeDropped returns the number of events discarded for this subscriber
// since the previous call, and resets the count.
func (s *Subscription) TakeDropped() uint64 { return s.dropped.Swap(0) }

// Close unsubscribes. Safe to call more than once and after Hub.Close.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(h.subs, s)
	close(s.ch)
}
