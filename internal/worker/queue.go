package worker

import (
	"context"
	"sync"
	"time"
)

// Queue is a deduplicating id queue feeding the conversion pool. An id that
// is already waiting is not enqueued again.
type Queue struct {
	ch        chan uint // FileIndex IDs
	mu        sync.Mutex
	enqueued  map[uint]struct{}
	accepting bool
}

func NewQueue(buf int) *Queue {
	return &Queue{
		ch:        make(chan uint, buf*2+10),
		enqueued:  make(map[uint]struct{}),
		accepting: true,
	}
}

func (q *Queue) Enqueue(id uint) bool {
	q.mu.Lock()
	if !q.accepting {
		q.mu.Unlock()
		return false
	}
	if _, ok := q.enqueued[id]; ok {
		q.mu.Unlock()
		return false
	}
	q.enqueued[id] = struct{}{}
	q.mu.Unlock()
	// send outside the lock: a full channel must not stop consumers from
	// reaching Dequeued or Len
	q.ch <- id
	return true
}

func (q *Queue) Dequeued(id uint) {
	q.mu.Lock()
	delete(q.enqueued, id)
	q.mu.Unlock()
}

func (q *Queue) StopAccepting() {
	q.mu.Lock()
	q.accepting = false
	q.mu.Unlock()
}

func (q *Queue) Chan() <-chan uint { return q.ch }

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.enqueued)
}

// Drain blocks until every enqueued id has been picked up and finished, or
// the context expires. Call StopAccepting first.
func (q *Queue) Drain(ctx context.Context) {
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()
	for {
		if q.Len() == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
