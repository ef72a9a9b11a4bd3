package messaging

import (
	"context"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	memoryBuffer      = 256
	memoryMaxAttempts = 3
)

// Memory is an in-process broker. Each group gets its own queue; consumers in
// one group compete for its messages. A failed message is redelivered up to
// three attempts in total.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[string]*memoryGroup

	seq    atomic.Int64
	closed atomic.Bool
	done   chan struct{}
}

type memoryGroup struct {
	ch   chan *Message
	refs int
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		topics: make(map[string]map[string]*memoryGroup),
		done:   make(chan struct{}),
	}
}

// Close stops every consumer. Pending messages are dropped.
func (m *Memory) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		close(m.done)
	}
	return nil
}

// Publish fans msg out to every group subscribed to topic. Publishing to a
// topic without consumers is a no-op.
func (m *Memory) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.Lock()
	queues := make([]chan *Message, 0, len(m.topics[topic]))
	for _, g := range m.topics[topic] {
		queues = append(queues, g.ch)
	}
	m.mu.Unlock()

	id := strconv.FormatInt(m.seq.Inc(), 10)
	now := time.Now()
	for _, q := range queues {
		delivered := &Message{
			ID:        id,
			Topic:     topic,
			Key:       msg.Key,
			Body:      append([]byte(nil), msg.Body...),
			Headers:   maps.Clone(msg.Headers),
			Timestamp: now,
			Attempt:   1,
		}
		select {
		case q <- delivered:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}

	return nil
}

// Consume blocks until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validate(topic, handler); err != nil {
		return err
	}
	if m.closed.Load() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = "_anon_" + strconv.FormatInt(m.seq.Inc(), 10)
	}

	q := m.join(topic, group)
	defer m.leave(topic, group)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				case msg := <-q:
					m.dispatch(ctx, q, handler, msg)
				}
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-m.done:
	}
	close(stop)
	wg.Wait()

	return err
}

func (m *Memory) dispatch(ctx context.Context, q chan *Message, handler Handler, msg *Message) {
	err := handle(ctx, DriverMemory, handler, msg)
	if err == nil {
		return
	}

	if msg.Attempt >= memoryMaxAttempts {
		slog.ErrorContext(ctx, "messaging: dropping message after max attempts", "topic", msg.Topic, "id", msg.ID, "error", err)
		return
	}

	retry := *msg
	retry.Attempt++
	select {
	case q <- &retry:
	default:
		slog.WarnContext(ctx, "messaging: queue full, dropping redelivery", "topic", msg.Topic, "id", msg.ID)
	}
}

func (m *Memory) join(topic, group string) chan *Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.topics[topic]
	if !ok {
		groups = make(map[string]*memoryGroup)
		m.topics[topic] = groups
	}

	g, ok := groups[group]
	if !ok {
		g = &memoryGroup{ch: make(chan *Message, memoryBuffer)}
		groups[group] = g
	}
	g.refs++

	return g.ch
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.topics[topic][group]
	if g == nil {
		return
	}
	if g.refs--; g.refs == 0 {
		delete(m.topics[topic], group)
	}
	if len(m.topics[topic]) == 0 {
		delete(m.topics, topic)
	}
}

// Subscribed reports how many groups currently listen on topic. Tests use it
// to wait for a consumer before publishing.
func (m *Memory) Subscribed(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.topics[topic])
}
