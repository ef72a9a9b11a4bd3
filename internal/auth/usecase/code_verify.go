package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

type VerifySignupInput struct {
	Email    string `validate:"required,email"`
	OTP      string `validate:"required,otp"`
	Name     string `validate:"required,min=2,max=100"`
	Password string `validate:"required,password"`
}

type VerifySignupOutput struct {
	User  User
	Token string
}

// VerifySignup redeems a signup code and materializes the account.
func (s *Usecase) VerifySignup(ctx context.Context, in VerifySignupInput) (*VerifySignupOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifySignup")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.OTP = strings.TrimSpace(in.OTP)
	in.Name = strings.TrimSpace(in.Name)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	vc, err := s.checkCode(ctx, in.Email, entity.PurposeSignup, in.OTP)
	if err != nil {
		return nil, err
	}

	pwHash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.createAccount(ctx, in.Name, in.Email, string(pwHash), vc.Digest)
}

// createAccount stores a verified account, consuming codeDigest when set,
// and signs the session token.
func (s *Usecase) createAccount(ctx context.Context, name, email, pwHash, codeDigest string) (*VerifySignupOutput, error) {
	now := s.clock.Now()
	na := entity.NewAccount{
		ID:           s.uid.Generate(),
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Settings:     entity.DefaultSettings(),
		Now:          now,
		CodeDigest:   codeDigest,
	}

	err := s.repoDB.CreateAccount(ctx, na)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "account email already taken", "email", email)
		return nil, errAlreadyExists()
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "signup code consumed concurrently", "email", email)
		return nil, errInvalidCode(entity.PurposeSignup)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create account", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(na.ID, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "account_id", na.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishAccountCreated(ctx, AccountCreatedEvent{
		EventID:    s.uuid.Generate(),
		AccountID:  na.ID,
		Email:      email,
		Name:       name,
		OccurredAt: now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish account created", "account_id", na.ID, "error", err)
	}

	return &VerifySignupOutput{
		User: newUser(&entity.Account{
			ID:            na.ID,
			Name:          name,
			Email:         email,
			EmailVerified: true,
			Settings:      na.Settings,
			Streak:        entity.DefaultStreak,
			JoinDate:      now,
			LastLogin:     now,
		}),
		Token: token,
	}, nil
}

type VerifyResetCodeInput struct {
	Email string `validate:"required,email"`
	OTP   string `validate:"required,otp"`
}

type VerifyResetCodeOutput struct {
	ResetToken string
}

// VerifyResetCode redeems a reset code for a ResetGrant.
func (s *Usecase) VerifyResetCode(ctx context.Context, in VerifyResetCodeInput) (*VerifyResetCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyResetCode")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.OTP = strings.TrimSpace(in.OTP)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	vc, err := s.checkCode(ctx, in.Email, entity.PurposePasswordReset, in.OTP)
	if err != nil {
		return nil, err
	}

	ok, err := s.repoDB.DeleteCode(ctx, in.Email, entity.PurposePasswordReset, vc.Digest)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete code", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "reset code consumed concurrently", "email", in.Email)
		return nil, errInvalidCode(entity.PurposePasswordReset)
	}

	token, err := s.resetJWT.Generate(0, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate reset token", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyResetCodeOutput{ResetToken: token}, nil
}

// checkCode purges expired codes for the pair, then matches the submission
// against the active one. The caller consumes it.
func (s *Usecase) checkCode(ctx context.Context, email string, p entity.Purpose, submitted string) (*entity.VerificationCode, error) {
	now := s.clock.Now()

	if _, err := s.repoDB.PurgeExpiredCodes(ctx, email, p, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo purge expired codes", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	vc, err := s.repoDB.GetActiveCode(ctx, email, p, now)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active code", "email", email, "purpose", p.String())
		return nil, errInvalidCode(p)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active code", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.codeHash.Verify(vc.Digest, submitted) {
		slog.WarnContext(ctx, "code mismatch", "email", email, "purpose", p.String())
		return nil, errInvalidCode(p)
	}

	return vc, nil
}
