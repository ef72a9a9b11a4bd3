package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

type SignInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type SignInOutput struct {
	User  User
	Token string
}

func (s *Usecase) SignIn(ctx context.Context, in SignInInput) (*SignInOutput, error) {
	ctx, span := s.startSpan(ctx, "SignIn")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	invalid := goerror.NewBusiness("Invalid credentials", goerror.CodeUnauthorized)

	acc, err := s.repoDB.GetAccountByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "sign in for unknown email", "email", in.Email)
		return nil, invalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(acc.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "sign in with wrong password", "account_id", acc.ID)
		return nil, invalid
	}

	now := s.clock.Now()
	acc.Streak = entity.NextStreak(acc.Streak, acc.LastLogin, now)
	acc.LastLogin = now

	if err := s.repoDB.UpdateLogin(ctx, acc.ID, now, acc.Streak); err != nil {
		slog.ErrorContext(ctx, "failed to repo update login", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(acc.ID, acc.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SignInOutput{User: newUser(acc), Token: token}, nil
}
