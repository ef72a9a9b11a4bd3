package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

func TestUsecase_SendSignupCode(t *testing.T) {
	t.Run("NormalizesAndSends", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.SendSignupCode(context.Background(), SendSignupCodeInput{Email: "  Ada@Example.COM "})

		// Assert
		if err != nil {
			t.Fatalf("SendSignupCode() error = %v", err)
		}
		if out.Email != "ada@example.com" {
			t.Fatalf("email = %q", out.Email)
		}
		if f.mail.count() != 1 || f.mail.sent[0].code != "482913" || f.mail.sent[0].purpose != entity.PurposeSignup {
			t.Fatalf("unexpected mail: %+v", f.mail.sent)
		}
		if f.store.CodeCount() != 1 {
			t.Fatalf("codes = %d, want 1", f.store.CodeCount())
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.SendSignupCode(context.Background(), SendSignupCodeInput{Email: "not-an-email"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidInput, "")
		if f.mail.count() != 0 {
			t.Fatal("mail sent for invalid email")
		}
	})

	t.Run("AlreadyExists", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")

		// Act
		_, err := f.uc.SendSignupCode(context.Background(), SendSignupCodeInput{Email: "ada@example.com"})

		// Assert
		assertCode(t, err, goerror.CodeAlreadyExists, "User already exists with this email")
		var gerr *goerror.Error
		errors.As(err, &gerr)
		if gerr.Fields()["email"] != "User already exists with this email" {
			t.Fatalf("fields = %v", gerr.Fields())
		}
	})

	t.Run("MailFailureDropsCode", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.mail.err = errors.New("smtp down")

		// Act
		_, err := f.uc.SendSignupCode(context.Background(), SendSignupCodeInput{Email: "ada@example.com"})

		// Assert
		assertCode(t, err, goerror.CodeInternal, "Failed to send verification email")
		if f.store.CodeCount() != 0 {
			t.Fatalf("codes = %d, want 0", f.store.CodeCount())
		}
	})

	t.Run("SkipOTPDoesNotMail", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.cfg.Set("modules.auth.skip_otp", true)

		// Act
		_, err := f.uc.SendSignupCode(context.Background(), SendSignupCodeInput{Email: "ada@example.com"})

		// Assert
		if err != nil {
			t.Fatalf("SendSignupCode() error = %v", err)
		}
		if f.mail.count() != 0 || f.store.CodeCount() != 1 {
			t.Fatalf("mails = %d codes = %d, want 0 and 1", f.mail.count(), f.store.CodeCount())
		}
	})
}

func TestUsecase_ForgotPassword(t *testing.T) {
	t.Run("UnknownEmailSendsNothing", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: "ghost@example.com"})

		// Assert
		if err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		if f.mail.count() != 0 || f.store.CodeCount() != 0 {
			t.Fatalf("mails = %d codes = %d, want none", f.mail.count(), f.store.CodeCount())
		}
	})

	t.Run("KnownEmailSendsResetCode", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		f.otp.code = "135790"

		// Act
		err := f.uc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: "ADA@example.com"})

		// Assert
		if err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		last := f.mail.sent[len(f.mail.sent)-1]
		if last.purpose != entity.PurposePasswordReset || last.code != "135790" || last.to != "ada@example.com" {
			t.Fatalf("unexpected mail: %+v", last)
		}
	})

	t.Run("MailFailureRemovesCode", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		f.mail.err = errors.New("smtp down")

		// Act
		err := f.uc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: "ada@example.com"})

		// Assert
		if err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		if f.store.CodeCount() != 0 {
			t.Fatalf("codes = %d, want 0", f.store.CodeCount())
		}
	})

	t.Run("KnownAndUnknownEmailsDeferAllWork", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		mailsBefore := f.mail.count()
		f.bg.hold = true
		ctx, cancel := context.WithCancel(context.Background())

		// Act
		errKnown := f.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ada@example.com"})
		errUnknown := f.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ghost@example.com"})
		queued, codes, mails := f.bg.pending(), f.store.CodeCount(), f.mail.count()
		cancel()
		f.bg.flush()

		// Assert
		if errKnown != nil || errUnknown != nil {
			t.Fatalf("errors = %v, %v", errKnown, errUnknown)
		}
		if queued != 2 {
			t.Fatalf("queued = %d, want 2", queued)
		}
		if codes != 0 || mails != mailsBefore {
			t.Fatalf("work ran on the request: codes = %d mails = %d", codes, mails-mailsBefore)
		}
		if f.mail.count() != mailsBefore+1 {
			t.Fatalf("mails after flush = %d, want 1", f.mail.count()-mailsBefore)
		}
		last := f.mail.sent[len(f.mail.sent)-1]
		if last.to != "ada@example.com" || last.purpose != entity.PurposePasswordReset {
			t.Fatalf("unexpected mail: %+v", last)
		}
	})

	t.Run("QueueFullFailsForAnyEmail", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		f.bg.full = true

		for _, email := range []string{"ada@example.com", "ghost@example.com"} {
			// Act
			err := f.uc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: email})

			// Assert
			assertCode(t, err, goerror.CodeInternal, "Failed to send reset email")
		}
	})
}
