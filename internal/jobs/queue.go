package jobs

import (
	"sync"

	"audiototxt/internal/domain"
)

// queue is an unbounded FIFO of events with one blocking consumer.
// Producers on worker goroutines append; the consumer suspends on empty
// rather than busy-waiting. The queue is unbounded by design; a bounded
// variant for production would drop oldest status events but never chunk
// or terminal events.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []domain.Event
	closed bool
}

// newQueue creates an empty open queue.
func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends one event. Events pushed after close are discarded.
func (q *queue) push(event domain.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.events = append(q.events, event)
	q.cond.Signal()
}

// close stops accepting events; buffered events remain drainable.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// next blocks until an event is available or the queue is closed and
// drained. The second return is false once no further event will come.
func (q *queue) next() (domain.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.events) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.events) == 0 {
		return domain.Event{}, false
	}

	event := q.events[0]
	q.events = q.events[1:]
	return event, true
}

// reset discards all pending events. Used when a consumer attaches and
// receives the accumulated transcript as a synthetic replay instead.
func (q *queue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
}
