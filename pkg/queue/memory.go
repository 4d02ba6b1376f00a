package queue

import (
	"fmt"
	"sync"
)

// InMemoryQueue implements a bounded in-memory queue.
type InMemoryQueue struct {
	ch   chan interface{}
	lock sync.Mutex
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, capacity),
	}
}

// Enqueue adds an item to the end of the queue. It fails instead of
// blocking when the queue is full so producers are never stalled by a
// slow consumer.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	select {
	case q.ch <- item:
		return nil
	default:
		return fmt.Errorf("queue is full")
	}
}

// ReadAllMessages drains and returns all pending items in the queue.
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	var items []interface{}
	for {
		select {
		case item := <-q.ch:
			items = append(items, item)
		default:
			return items, nil
		}
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	return len(q.ch)
}

// ClearQueue discards all pending items.
func (q *InMemoryQueue) ClearQueue() {
	q.lock.Lock()
	defer q.lock.Unlock()
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
