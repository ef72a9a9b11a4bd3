package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/productivefire/server/internal/auth/usecase"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/messaging"
	"github.com/productivefire/server/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("auth.outbound.mq").Start(ctx, name)
}

func (m *Messaging) PublishAccountCreated(ctx context.Context, msg usecase.AccountCreatedEvent) (err error) {
	ctx, span := m.startSpan(ctx, "PublishAccountCreated")
	defer func() { instrument.EndSpan(span, err) }()

	body, err := json.Marshal(event.AccountCreatedMessage{
		EventID:    msg.EventID,
		AccountID:  msg.AccountID,
		Email:      msg.Email,
		Name:       msg.Name,
		OccurredAt: msg.OccurredAt,
	})
	if err != nil {
		return err
	}

	err = m.publish(ctx, event.AccountCreatedDestination, msg.AccountID, body)
	return err
}

func (m *Messaging) PublishPasswordChanged(ctx context.Context, msg usecase.PasswordChangedEvent) (err error) {
	ctx, span := m.startSpan(ctx, "PublishPasswordChanged")
	defer func() { instrument.EndSpan(span, err) }()

	body, err := json.Marshal(event.PasswordChangedMessage{
		EventID:    msg.EventID,
		AccountID:  msg.AccountID,
		Email:      msg.Email,
		OccurredAt: msg.OccurredAt,
	})
	if err != nil {
		return err
	}

	err = m.publish(ctx, event.PasswordChangedDestination, msg.AccountID, body)
	return err
}

// publish keys every message by account id so brokers that partition keep
// one account's events in order.
func (m *Messaging) publish(ctx context.Context, topic string, accountID int64, body []byte) error {
	return m.client.Publish(ctx, topic, messaging.Outgoing{
		Key:  strconv.FormatInt(accountID, 10),
		Body: body,
		Headers: map[string]string{
			event.HeaderCorrelationID: instrument.GetCorrelationID(ctx),
		},
	})
}
