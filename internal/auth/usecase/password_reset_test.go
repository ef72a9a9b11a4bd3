package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/productivefire/server/internal/pkg/goerror"
)

func TestUsecase_ResetFlow(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
	f.otp.code = "975310"

	// Act
	if err := f.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ada@example.com"}); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	grant, err := f.uc.VerifyResetCode(ctx, VerifyResetCodeInput{Email: "ada@example.com", OTP: "975310"})
	if err != nil {
		t.Fatalf("VerifyResetCode() error = %v", err)
	}
	resetErr := f.uc.ResetPassword(ctx, ResetPasswordInput{ResetToken: grant.ResetToken, NewPassword: "NewPass1!"})

	// Assert
	if resetErr != nil {
		t.Fatalf("ResetPassword() error = %v", resetErr)
	}
	_, oldErr := f.uc.SignIn(ctx, SignInInput{Email: "ada@example.com", Password: "Str0ng!Pass"})
	assertCode(t, oldErr, goerror.CodeUnauthorized, "Invalid credentials")
	if _, err := f.uc.SignIn(ctx, SignInInput{Email: "ada@example.com", Password: "NewPass1!"}); err != nil {
		t.Fatalf("SignIn() with new password error = %v", err)
	}
	if len(f.pub.changed) != 1 {
		t.Fatalf("password changed events = %d, want 1", len(f.pub.changed))
	}

	t.Run("GrantIsSingleUse", func(t *testing.T) {
		// Act
		err := f.uc.ResetPassword(ctx, ResetPasswordInput{ResetToken: grant.ResetToken, NewPassword: "Another1!"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidOrExpired, "Invalid or expired reset token")
	})

	t.Run("CodeIsSingleUse", func(t *testing.T) {
		// Act
		_, err := f.uc.VerifyResetCode(ctx, VerifyResetCodeInput{Email: "ada@example.com", OTP: "975310"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidOrExpired, "")
	})
}

func TestUsecase_ResetPassword(t *testing.T) {
	t.Run("ExpiredGrant", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx := context.Background()
		f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		_ = f.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ada@example.com"})
		grant, err := f.uc.VerifyResetCode(ctx, VerifyResetCodeInput{Email: "ada@example.com", OTP: "482913"})
		if err != nil {
			t.Fatalf("VerifyResetCode() error = %v", err)
		}
		f.clock.Advance(16 * time.Minute)

		// Act
		err = f.uc.ResetPassword(ctx, ResetPasswordInput{ResetToken: grant.ResetToken, NewPassword: "NewPass1!"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidOrExpired, "Invalid or expired reset token")
	})

	t.Run("SessionTokenIsNotAGrant", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		out := f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")

		// Act
		err := f.uc.ResetPassword(context.Background(), ResetPasswordInput{ResetToken: out.Token, NewPassword: "NewPass1!"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidOrExpired, "Invalid or expired reset token")
	})

	t.Run("WeakPassword", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.ResetPassword(context.Background(), ResetPasswordInput{ResetToken: "x", NewPassword: "abc"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidInput, "")
	})
}
