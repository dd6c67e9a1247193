package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
)

func ev(x uint16) types.Event {
	return types.Event{X: x, Y: 0, Color: types.Red}
}

// recv reads one event with a deadline.
func recv(t *testing.T, s *Subscription) types.Event {
	t.Helper()
	select {
	case e, ok := <-s.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return types.Event{}
}

// assertEmpty fails if s has a queued event.
func assertEmpty(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case e := <-s.C():
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	h := New(10)
	if n := h.Publish(ev(1)); n != 0 {
		t.Errorf("Publish: reached %d, want 0", n)
	}
}

func TestPublish_FanOutInOrder(t *testing.T) {
	h := New(100)
	const k, n = 5, 50

	subs := make([]*Subscription, k)
	for i := range subs {
		subs[i] = h.Subscribe()
		defer subs[i].Close()
	}

	for i := 0; i < n; i++ {
		if got := h.Publish(ev(uint16(i))); got != k {
			t.Fatalf("Publish: reached %d, want %d", got, k)
		}
	}

	for i, s := range subs {
		for j := 0; j < n; j++ {
			if got := recv(t, s); got.X != uint16(j) {
				t.Fatalf("subscriber %d event %d: got x=%d", i, j, got.X)
			}
		}
		assertEmpty(t, s)
	}
}

func TestSubscribe_LateJoinerMissesEarlierEvents(t *testing.T) {
	h := New(10)
	early := h.Subscribe()
	defer early.Close()

	h.Publish(ev(1))
	late := h.Subscribe()
	defer late.Close()
	h.Publish(ev(2))

	if got := recv(t, late); got.X != 2 {
		t.Errorf("late subscriber: got x=%d, want 2", got.X)
	}
	assertEmpty(t, late)

	if got := recv(t, early); got.X != 1 {
		t.Errorf("early subscriber first: got x=%d, want 1", got.X)
	}
	if got := recv(t, early); got.X != 2 {
		t.Errorf("early subscriber second: got x=%d, want 2", got.X)
	}
}

func TestPublish_SlowSubscriberDropsOldest(t *testing.T) {
	h := New(3)
	slow := h.Subscribe()
	defer slow.Close()
	fast := h.Subscribe()
	defer fast.Close()

	for i := 1; i <= 5; i++ {
		h.Publish(ev(uint16(i)))
		// fast keeps up; slow never reads.
		if got := recv(t, fast); got.X != uint16(i) {
			t.Fatalf("fast subscriber: got x=%d, want %d", got.X, i)
		}
	}

	if d := slow.TakeDropped(); d != 2 {
		t.Errorf("TakeDropped: got %d, want 2", d)
	}
	if d := slow.TakeDropped(); d != 0 {
		t.Errorf("TakeDropped after reset: got %d, want 0", d)
	}
	if d := fast.TakeDropped(); d != 0 {
		t.Errorf("fast TakeDropped: got %d, want 0", d)
	}

	for _, want := range []uint16{3, 4, 5} {
		if got := recv(t, slow); got.X != want {
			t.Errorf("slow subscriber: got x=%d, want %d", got.X, want)
		}
	}
	assertEmpty(t, slow)
}

func TestPublish_NeverBlocksOnStalledSubscriber(t *testing.T) {
	h := New(1)
	stalled := h.Subscribe()
	defer stalled.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			h.Publish(ev(uint16(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled subscriber")
	}
}

func TestSubscription_CloseUnsubscribes(t *testing.T) {
	h := New(10)
	s := h.Subscribe()
	if n := h.Count(); n != 1 {
		t.Fatalf("Count: got %d, want 1", n)
	}

	s.Close()
	s.Close() // idempotent

	if n := h.Count(); n != 0 {
		t.Errorf("Count after Close: got %d, want 0", n)
	}
	if _, ok := <-s.C(); ok {
		t.Error("channel still open after Close")
	}
	if n := h.Publish(ev(1)); n != 0 {
		t.Errorf("Publish after unsubscribe: reached %d, want 0", n)
	}
}

func TestHub_CloseClosesAllSubscriptions(t *testing.T) {
	h := New(10)
	a, b := h.Subscribe(), h.Subscribe()

	h.Close()
	h.Close()

	for _, s := range []*Subscription{a, b} {
		if _, ok := <-s.C(); ok {
			t.Error("subscription still open after Hub.Close")
		}
		s.Close() // must not panic
	}
	if n := h.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}

	late := h.Subscribe()
	if _, ok := <-late.C(); ok {
		t.Error("subscription created after Close should be closed")
	}
}

func TestNew_DefaultCapacity(t *testing.T) {
	if c := New(0).Capacity(); c != DefaultCapacity {
		t.Errorf("Capacity: got %d, want %d", c, DefaultCapacity)
	}
}

// Every subscriber must observe the same interleaving of concurrent
// publishers.
func TestPublish_GlobalOrderAcrossPublishers(t *testing.T) {
	const publishers, perPublisher = 4, 200
	h := New(publishers * perPublisher)

	a, b := h.Subscribe(), h.Subscribe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				h.Publish(types.Event{X: uint16(p), Y: uint16(i), Color: types.Blue})
			}
		}(p)
	}
	wg.Wait()

	for i := 0; i < publishers*perPublisher; i++ {
		ea, eb := recv(t, a), recv(t, b)
		if ea != eb {
			t.Fatalf("position %d: subscriber a saw %v, b saw %v", i, ea, eb)
		}
	}
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	h := New(4)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := h.Subscribe()
			h.Publish(ev(1))
			s.Close()
		}()
		go func() {
			defer wg.Done()
			h.Publish(ev(2))
		}()
	}
	wg.Wait()
	if n := h.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}
}
