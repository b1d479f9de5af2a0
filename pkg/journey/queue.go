package journey

import (
	"sync"
)

// eventQueue is the in-memory FIFO buffer behind the collector. Delivery
// snapshots detach the live slice, so events appended while a flush is in
// flight land in a fresh queue and are never lost or duplicated. Failed
// batches are returned to the front, which bends strict FIFO ordering only in
// the retry case.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
}

// append adds an event and returns the resulting queue length.
func (q *eventQueue) append(ev Event) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
	return len(q.events)
}

// snapshot detaches and returns the current contents, leaving the live queue
// empty.
func (q *eventQueue) snapshot() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.events
	q.events = nil
	return batch
}

// requeue pushes a failed batch back to the front of the live queue.
func (q *eventQueue) requeue(batch []Event) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(batch, q.events...)
}

// len returns the number of buffered events.
func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// clear drops all buffered events.
func (q *eventQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
}
