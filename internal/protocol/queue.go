package protocol

import (
	"sync"

	"github.com/fedichess/fedichess-go/internal/message"
)

// EventQueue is an unbounded FIFO of bridge events shared between the
// dispatcher goroutine and callers polling for events.
type EventQueue struct {
	mu     sync.Mutex
	events []*message.Event
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make([]*message.Event, 0, 16)}
}

// Push appends an event.
func (q *EventQueue) Push(ev *message.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, ev)
}

// Pop removes and returns the oldest event. It never blocks.
func (q *EventQueue) Pop() (*message.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}

	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]

	return ev, true
}

// Drain removes and returns every queued event in arrival order.
func (q *EventQueue) Drain() []*message.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*message.Event, len(q.events))
	copy(out, q.events)
	clear(q.events)
	q.events = q.events[:0]

	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.events)
}
