// Package queue provides a bounded hand-off queue between pipeline stages.
//
// A Queue has two independent shutdown signals. The producer side calls
// CloseSend when it has nothing more to emit; consumers drain what is
// buffered and then observe exhaustion. The consumer side calls CloseRecv
// when it is torn down; producers blocked in Send (or calling it later)
// get ErrConsumerClosed instead of blocking forever.
package queue

import (
	"errors"
	"sync"
)

// ErrConsumerClosed is returned by Send once the consumer side has closed.
var ErrConsumerClosed = errors.New("queue: consumer closed")

// Queue is a bounded multi-producer/multi-consumer queue.
type Queue[T any] struct {
	items chan T
	done  chan struct{}

	sendOnce sync.Once
	recvOnce sync.Once
}

// New creates a queue that buffers up to capacity items.
func New[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

// Send blocks until v is buffered or the consumer side closes.
// Send must not be called after CloseSend.
func (q *Queue[T]) Send(v T) error {
	select {
	case <-q.done:
		return ErrConsumerClosed
	default:
	}
	select {
	case q.items <- v:
		return nil
	case <-q.done:
		return ErrConsumerClosed
	}
}

// Recv blocks until an item is available. It returns false when the
// producer side has closed and the buffer is drained, or when the
// consumer side has been closed.
func (q *Queue[T]) Recv() (T, bool) {
	select {
	case <-q.done:
		var zero T
		return zero, false
	default:
	}
	select {
	case v, ok := <-q.items:
		return v, ok
	case <-q.done:
		var zero T
		return zero, false
	}
}

// CloseSend marks the producer side finished. Safe to call more than once.
func (q *Queue[T]) CloseSend() {
	q.sendOnce.Do(func() { close(q.items) })
}

// CloseRecv marks the consumer side torn down. Pending and future Sends
// fail with ErrConsumerClosed. Safe to call more than once.
func (q *Queue[T]) CloseRecv() {
	q.recvOnce.Do(func() { close(q.done) })
}

// ConsumerClosed reports whether CloseRecv has been called.
func (q *Queue[T]) ConsumerClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Cap returns the queue's buffer capacity.
func (q *Queue[T]) Cap() int { return cap(q.items) }

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int { return len(q.items) }
