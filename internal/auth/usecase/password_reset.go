package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

type ResetPasswordInput struct {
	ResetToken  string `validate:"required"`
	NewPassword string `validate:"required,password"`
}

// ResetPassword redeems a ResetGrant once and replaces the password hash.
func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	in.ResetToken = strings.TrimSpace(in.ResetToken)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.resetJWT.Verify(in.ResetToken)
	if err != nil {
		slog.WarnContext(ctx, "reset token rejected", "error", err)
		return errInvalidGrant()
	}
	email := normalizeEmail(clm.UserEmail)
	if email == "" || clm.ID == "" || clm.ExpiresAt == nil {
		slog.WarnContext(ctx, "reset token missing claims", "jti", clm.ID)
		return errInvalidGrant()
	}

	acc, err := s.repoDB.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "reset token for unknown account", "email", email)
		return errUserNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	pwHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	err = s.repoDB.ResetPassword(ctx, entity.PasswordReset{
		GrantID:        clm.ID,
		GrantExpiresAt: clm.ExpiresAt.Time,
		Email:          email,
		PasswordHash:   string(pwHash),
		Now:            now,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "reset token already redeemed", "jti", clm.ID, "email", email)
		return errInvalidGrant()
	}
	if errors.Is(err, goerror.ErrNotFound) {
		return errUserNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset password", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishPasswordChanged(ctx, PasswordChangedEvent{
		EventID:    s.uuid.Generate(),
		AccountID:  acc.ID,
		Email:      email,
		OccurredAt: now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish password changed", "account_id", acc.ID, "error", err)
	}

	return nil
}
