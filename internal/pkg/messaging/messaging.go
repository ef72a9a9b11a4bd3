package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrClosed is returned by Publish and Consume after Close.
	ErrClosed = errors.New("messaging: client closed")
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker client that can publish and consume.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Outgoing) error
}

// Consumer consumes messages from a topic. Consume blocks until ctx is done
// or the client is closed.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. A nil error acks the message; an
// error asks the broker for redelivery where it supports one.
type Handler func(ctx context.Context, msg *Message) error

// Outgoing is a message to publish.
type Outgoing struct {
	Key     string
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	ID        string
	Topic     string
	Key       string
	Body      []byte
	Headers   map[string]string
	Timestamp time.Time
	// Attempt starts at 1 and grows on redelivery when the broker reports it.
	Attempt int
}

// Header returns the value of header k or "".
func (m *Message) Header(k string) string {
	if m == nil || m.Headers == nil {
		return ""
	}
	return m.Headers[k]
}

func validate(topic string, handler Handler) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
