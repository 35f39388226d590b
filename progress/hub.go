// Package progress fans out batch progress events to any number of
// subscribers without ever blocking the publisher.
package progress

import (
	"sync"

	"splitter/models"
)

// Publisher accepts progress events.
type Publisher interface {
	Publish(ev models.ProgressEvent)
}

// Hub broadcasts events to its subscribers.
//
// Every subscriber owns an unbounded FIFO drained into its channel by a
// dedicated goroutine, so Publish returns immediately even when a consumer
// is slow, and each subscriber sees events in publish order.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription is one consumer's view of a Hub.
type Subscription struct {
	ch   chan models.ProgressEvent
	stop chan struct{}
	done chan struct{}

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []models.ProgressEvent
	closing  bool
	stopOnce sync.Once
}

// C returns the channel events are delivered on. It is closed after the hub
// is closed and every queued event has been delivered, or right after
// Unsubscribe.
func (s *Subscription) C() <-chan models.ProgressEvent {
	return s.ch
}

// Subscribe registers a new consumer. Subscribing to a closed hub returns a
// subscription whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		ch:   make(chan models.ProgressEvent),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	h.mu.Lock()
	if h.closed {
		s.closing = true
	} else {
		h.subs[s] = struct{}{}
	}
	h.mu.Unlock()

	go s.pump()
	return s
}

// Unsubscribe detaches s, discarding undelivered events, and waits for its
// goroutine to exit.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	s.closing = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

// Publish enqueues ev for every current subscriber. It never blocks on a
// consumer. Events published after Close are dropped.
func (h *Hub) Publish(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for s := range h.subs {
		s.enqueue(ev)
	}
}

// Close stops accepting events. Subscribers still receive everything that
// was published before Close, then their channels are closed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for s := range subs {
		s.mu.Lock()
		s.closing = true
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Subscription) enqueue(ev models.ProgressEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Subscription) pump() {
	defer close(s.done)
	defer close(s.ch)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closing {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue[0] = models.ProgressEvent{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- ev:
		case <-s.stop:
			return
		}
	}
}
