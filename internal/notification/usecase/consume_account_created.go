package usecase

import (
	"context"
	"log/slog"
)

type ConsumeAccountCreatedInput struct {
	EventID   string `validate:"required"`
	AccountID int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	Name      string `validate:"max=100"`
}

// ConsumeAccountCreated sends the welcome email for a new account. Invalid
// payloads are logged and dropped since redelivery cannot fix them.
func (s *Usecase) ConsumeAccountCreated(ctx context.Context, in ConsumeAccountCreatedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountCreated")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid account created event", "event_id", in.EventID, "error", err)
		return nil
	}

	return s.once(ctx, "notification:welcome:"+in.EventID, func(ctx context.Context) error {
		return s.repoMail.SendWelcome(ctx, in.Email, in.Name)
	})
}
