package usecase

import (
	"context"
	"log/slog"
	"time"
)

type ConsumePasswordChangedInput struct {
	EventID    string `validate:"required"`
	AccountID  int64  `validate:"required,gt=0"`
	Email      string `validate:"required,email"`
	OccurredAt time.Time
}

// ConsumePasswordChanged sends the security notice after a password reset.
func (s *Usecase) ConsumePasswordChanged(ctx context.Context, in ConsumePasswordChangedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordChanged")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid password changed event", "event_id", in.EventID, "error", err)
		return nil
	}

	at := in.OccurredAt
	if at.IsZero() {
		at = s.clock.Now()
	}

	return s.once(ctx, "notification:password-changed:"+in.EventID, func(ctx context.Context) error {
		return s.repoMail.SendPasswordChanged(ctx, in.Email, at)
	})
}
