// Package messaging abstracts the message bus that diagnostics are fanned out on,
// so producers are not tied to a particular broker.
package messaging

import (
	"context"
	"time"
)

// Message is a payload published to or received from a subject.
type Message struct {
	Subject   string
	Reply     string // inbox a request expects its answer on
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
}

// MessageHandler processes a received message.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription is an active subscription to a subject.
type Subscription interface {
	Unsubscribe() error
	Subject() string
	IsValid() bool
}

// Publisher publishes messages to subjects. Publishing is fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	PublishMsg(ctx context.Context, msg *Message) error
	Close() error
}

// Subscriber receives messages published on subjects. Wildcards follow the
// broker's syntax.
type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) (Subscription, error)
	Close() error
}

// QueueSubscriber delivers each message to one member of a queue group.
type QueueSubscriber interface {
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)
}

// Requester sends a request and waits for a single reply.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) (*Message, error)
}

// Client combines Publisher and Subscriber.
type Client interface {
	Publisher
	Subscriber

	// Drain flushes pending messages and closes the connection.
	Drain() error
	IsConnected() bool
}
