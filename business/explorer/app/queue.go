package app

import (
	"context"
	"sync"

	"github.com/fd1az/blockterm/internal/apperror"
)

// Queue is an unbounded FIFO. Push never blocks; Pop waits for an item.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
	closed bool
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push appends v. It fails once the queue is closed.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return apperror.New(apperror.CodeQueueClosed)
	}
	q.items = append(q.items, v)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the oldest item, waiting until one arrives, ctx ends or the
// queue is closed and drained.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, apperror.New(apperror.CodeQueueClosed)
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting items. Queued items can still be popped.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
