package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/productivefire/server/internal/notification/usecase"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/messaging"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg *messaging.Message) context.Context {
	if cID := msg.Header(event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) AccountCreatedNotification(ctx context.Context, msg *messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "AccountCreatedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: account created notification", "msg_id", msg.ID, "attempt", msg.Attempt)

	var payload event.AccountCreatedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account created notification", "msg_body", string(msg.Body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeAccountCreated(ctx, usecase.ConsumeAccountCreatedInput{
		EventID:   payload.EventID,
		AccountID: payload.AccountID,
		Email:     payload.Email,
		Name:      payload.Name,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume account created", "event_id", payload.EventID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PasswordChangedNotification(ctx context.Context, msg *messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordChangedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: password changed notification", "msg_id", msg.ID, "attempt", msg.Attempt)

	var payload event.PasswordChangedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password changed notification", "msg_body", string(msg.Body), "error", err)
		return nil
	}

	if err := h.uc.ConsumePasswordChanged(ctx, usecase.ConsumePasswordChangedInput{
		EventID:    payload.EventID,
		AccountID:  payload.AccountID,
		Email:      payload.Email,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password changed", "event_id", payload.EventID, "error", err)
		return err
	}

	return nil
}
