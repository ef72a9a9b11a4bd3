package mail

import (
	"context"
	"sync"
)

// Memory is a Mail implementation that records messages instead of sending
// them. It can be told to fail, to exercise delivery error paths.
type Memory struct {
	mu          sync.Mutex
	defaultFrom string
	outbox      []Message
	failWith    error
}

// NewMemory returns an empty in-memory outbox.
func NewMemory(defaultFrom string) *Memory {
	return &Memory{defaultFrom: defaultFrom}
}

// Send appends msg to the outbox, or returns the configured failure.
func (m *Memory) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := msg.sender(m.defaultFrom)
	if err != nil {
		return err
	}
	msg.From = from

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	m.outbox = append(m.outbox, msg)

	return nil
}

// FailWith makes every following Send return err. Pass nil to recover.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failWith = err
}

// Sent returns a copy of every delivered message, oldest first.
func (m *Memory) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Message(nil), m.outbox...)
}

// Last returns the newest message sent to addr.
func (m *Memory) Last(addr string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.outbox) - 1; i >= 0; i-- {
		for _, to := range m.outbox[i].To {
			if to == addr {
				return m.outbox[i], true
			}
		}
	}

	return Message{}, false
}

// Close implements io.Closer.
func (m *Memory) Close() error {
	return nil
}
