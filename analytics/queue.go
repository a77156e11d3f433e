// Package analytics tracks user events to an external collector, queuing
// failed sends in a persisted bounded buffer for replay on the next start.
package analytics

import (
	"sync"

	models "github.com/tumaini/giving-portal-go/models"
)

// FailedQueue is a capacity-capped buffer of events whose send failed. When
// full, the oldest event is dropped. All access is mutex-guarded because
// sends can run from request goroutines concurrently, and every change is
// written through to the persistence port.
type FailedQueue struct {
	mu     sync.Mutex
	cap    int
	events []models.QueuedEvent
	store  QueueStore
}

func NewFailedQueue(capacity int, store QueueStore) (*FailedQueue, error) {
	if capacity <= 0 {
		capacity = 500
	}
	q := &FailedQueue{cap: capacity, store: store}

	events, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(events) > capacity {
		events = events[len(events)-capacity:]
	}
	q.events = events
	return q, nil
}

// Push appends an event, dropping the oldest when at capacity.
func (q *FailedQueue) Push(ev models.QueuedEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.cap {
		q.events = q.events[1:]
	}
	q.events = append(q.events, ev)
	return q.store.Save(append([]models.QueuedEvent(nil), q.events...))
}

// Drain removes and returns every queued event. Events that fail again are
// expected to be pushed back by the caller.
func (q *FailedQueue) Drain() ([]models.QueuedEvent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = nil
	if err := q.store.Save(nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Len reports the number of queued events.
func (q *FailedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
