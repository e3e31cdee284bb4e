// Package handoff is the bounded queue between a network goroutine and a
// render loop.
package handoff

import "context"

// DefaultCapacity keeps at most three updates in flight so a display is never
// more than a few ticks stale
const DefaultCapacity = 3

// Queue is a bounded FIFO. Push blocks while the queue is full; TryPop never
// blocks. One producer and any number of consumers may use it concurrently.
type Queue[T any] struct {
	items chan T
}

// New creates a queue holding at most capacity items. A non-positive
// capacity selects DefaultCapacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{items: make(chan T, capacity)}
}

// Push appends v, waiting for space until ctx is done
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case q.items <- v:
		return nil
	default:
	}

	select {
	case q.items <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPop returns the oldest item if one is available
func (q *Queue[T]) TryPop() (T, bool) {
	select {
	case v := <-q.items:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Pop waits for the oldest item until ctx is done
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case v := <-q.items:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the queue's capacity
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}
