package queue

import (
	"github.com/pkg/errors"
)

var ErrQueueEmpty = errors.New("queue is empty")

// Queue is a FIFO queue backed by a slice.
// The zero value is an empty queue.
type Queue[T any] struct {
	queue []T
}

func New[T any](initialCap uint) *Queue[T] {
	return &Queue[T]{queue: make([]T, 0, initialCap)}
}

func (q *Queue[T]) Enqueue(v T) {
	q.queue = append(q.queue, v)
}

func (q *Queue[T]) Dequeue() (T, error) {
	if q.Len() == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}

	v := q.queue[0]

	var zero T
	q.queue[0] = zero
	q.queue = q.queue[1:]

	return v, nil
}

func (q *Queue[T]) Peek() (T, error) {
	if q.Len() == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}
	return q.queue[0], nil
}

func (q *Queue[T]) Len() int {
	return len(q.queue)
}

// Drain removes and returns every element in order.
func (q *Queue[T]) Drain() []T {
	out := q.queue
	q.queue = nil
	return out
}
