package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

type SendSignupCodeInput struct {
	Email string `validate:"required,email"`
}

type SendSignupCodeOutput struct {
	Email string
}

// SendSignupCode issues a signup code for an email that no account owns yet.
func (s *Usecase) SendSignupCode(ctx context.Context, in SendSignupCodeInput) (*SendSignupCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "SendSignupCode")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.GetAccountByEmail(ctx, in.Email)
	if err == nil {
		slog.WarnContext(ctx, "signup code requested for registered email", "email", in.Email)
		return nil, errAlreadyExists()
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.issueCode(ctx, in.Email, entity.PurposeSignup); err != nil {
		return nil, err
	}

	return &SendSignupCodeOutput{Email: in.Email}, nil
}

type ForgotPasswordInput struct {
	Email string `validate:"required,email"`
}

// ForgotPassword queues the reset code delivery and returns. The account
// lookup and the mail run in the background so known and unknown emails
// answer alike; an unknown email sends nothing.
func (s *Usecase) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ForgotPassword")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	email := in.Email
	queued := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		s.sendResetCode(ctx, email)
		return nil
	})
	if !queued {
		slog.ErrorContext(ctx, "failed to queue reset code", "email", email)
		return goerror.NewServerMsg(errResetNotQueued, "Failed to send reset email")
	}

	return nil
}

var errResetNotQueued = errors.New("reset code delivery not queued")

// sendResetCode issues a reset code when an account owns email. Failures are
// only logged; the client already has its answer.
func (s *Usecase) sendResetCode(ctx context.Context, email string) {
	ctx, span := s.startSpan(ctx, "sendResetCode")
	defer span.End()

	_, err := s.repoDB.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset requested for unknown email", "email", email)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		return
	}

	_ = s.issueCode(ctx, email, entity.PurposePasswordReset)
}

// issueCode replaces any code for (email, purpose) and mails the new one.
// When delivery fails the stored code is removed again.
func (s *Usecase) issueCode(ctx context.Context, email string, p entity.Purpose) error {
	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	vc := entity.VerificationCode{
		Email:     email,
		Purpose:   p,
		Digest:    s.codeHash.Digest(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(entity.CodeTTL),
	}

	if err := s.repoDB.ReplaceCode(ctx, vc); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace code", "email", email, "purpose", p.String(), "error", err)
		return goerror.NewServer(err)
	}

	if p == entity.PurposeSignup && s.skipOTP() {
		slog.DebugContext(ctx, "signup code not mailed", "email", email, "code", code)
		return nil
	}

	if err := s.repoMail.SendCode(ctx, email, p, code); err != nil {
		slog.ErrorContext(ctx, "failed to send code email", "email", email, "purpose", p.String(), "error", err)

		if _, dErr := s.repoDB.DeleteCode(ctx, email, p, vc.Digest); dErr != nil {
			slog.ErrorContext(ctx, "failed to repo delete undelivered code", "email", email, "error", dErr)
		}

		if p == entity.PurposePasswordReset {
			return goerror.NewServerMsg(err, "Failed to send reset email")
		}
		return goerror.NewServerMsg(err, "Failed to send verification email")
	}

	return nil
}
