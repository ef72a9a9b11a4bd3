package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/productivefire/server/internal/pkg/goerror"
)

type SignUpInput struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
}

// SignUp creates a verified account without a code. It only runs when
// modules.auth.skip_otp is enabled.
func (s *Usecase) SignUp(ctx context.Context, in SignUpInput) (*VerifySignupOutput, error) {
	ctx, span := s.startSpan(ctx, "SignUp")
	defer span.End()

	if !s.skipOTP() {
		return nil, goerror.NewBusiness("Endpoint not found", goerror.CodeNotFound)
	}

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	pwHash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.createAccount(ctx, in.Name, in.Email, string(pwHash), "")
}
