package messaging

import (
	"context"
	"errors"
)

// ErrClosed is returned by Consume once a closed queue is drained.
var ErrClosed = errors.New("queue closed")

// Queue hands payloads from a producer to competing consumers.
type Queue[T any] interface {
	// Publish enqueues t; it fails once the queue is closed.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available, the queue is closed and
	// drained, or ctx is done.
	Consume(ctx context.Context) (Message[T], error)

	// Close stops accepting messages; pending ones can still be consumed.
	Close() error
}

// Message is a consumed payload awaiting acknowledgement.
type Message[T any] interface {
	T() *T
	Ack() error
	// Nack reports a processing failure; the payload is not redelivered.
	Nack(err error) error
}
