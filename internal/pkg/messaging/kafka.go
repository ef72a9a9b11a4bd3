package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/atomic"
)

var (
	// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	// ErrKafkaGroupRequired is returned when Consume has no group.
	ErrKafkaGroupRequired = errors.New("messaging: kafka consumer group is required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka is backed by kafka-go. A message is committed once the handler
// returns; a handler error is logged and the offset still advances so a
// poison message cannot block the partition.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  atomic.Bool
}

// NewKafka validates cfg. Connections are opened lazily.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers: append([]string{}, cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
	}, nil
}

// Close shuts down all writers. Readers stop with their Consume context.
func (k *Kafka) Close() error {
	if !k.closed.CompareAndSwap(false, true) {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	var err error
	for _, w := range k.writers {
		err = errors.Join(err, w.Close())
	}
	k.writers = nil
	return err
}

// Publish writes msg to topic.
func (k *Kafka) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if k.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	kmsg := kafka.Message{Key: []byte(msg.Key), Value: msg.Body, Time: time.Now()}
	for key, v := range msg.Headers {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer(topic).WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("messaging: kafka write: %w", err)
	}
	return nil
}

func (k *Kafka) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if w, ok := k.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	if k.dialer != nil {
		w.Transport = &kafka.Transport{TLS: k.dialer.TLS, SASL: k.dialer.SASLMechanism}
	}
	k.writers[topic] = w
	return w
}

// Consume reads topic as part of the group.
func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validate(topic, handler); err != nil {
		return err
	}
	if k.closed.Load() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		GroupID: co.group,
		Topic:   topic,
		Dialer:  k.dialer,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			slog.WarnContext(ctx, "messaging: kafka reader close", "topic", topic, "error", err)
		}
	}()

	sem := make(chan struct{}, co.concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("messaging: kafka fetch: %w", err)
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(km kafka.Message) {
			defer func() { <-sem; wg.Done() }()

			msg := fromKafka(km)
			if herr := handle(ctx, DriverKafka, handler, msg); herr != nil {
				logDropped(ctx, DriverKafka, msg, herr)
			}
			if cerr := reader.CommitMessages(ctx, km); cerr != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "messaging: kafka commit", "topic", km.Topic, "offset", km.Offset, "error", cerr)
			}
		}(km)
	}
}

func fromKafka(km kafka.Message) *Message {
	msg := &Message{
		ID:        km.Topic + "/" + strconv.Itoa(km.Partition) + "/" + strconv.FormatInt(km.Offset, 10),
		Topic:     km.Topic,
		Key:       string(km.Key),
		Body:      km.Value,
		Timestamp: km.Time,
		Attempt:   1,
	}
	if len(km.Headers) > 0 {
		msg.Headers = make(map[string]string, len(km.Headers))
		for _, h := range km.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}

func logDropped(ctx context.Context, driver string, msg *Message, err error) {
	slog.ErrorContext(ctx, "messaging: handler failed", "driver", driver, "topic", msg.Topic, "id", msg.ID, "error", err)
}
