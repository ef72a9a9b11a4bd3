package validator

import (
	"errors"
	"strings"
	"testing"
)

type verifyRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,otp"`
	NewPassword string `json:"newPassword" validate:"required,password"`
	Name        string `validate:"omitempty,min=2"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	t.Run("Valid", func(t *testing.T) {
		// Arrange
		req := verifyRequest{Email: "ada@example.com", OTP: "482913", NewPassword: "Str0ng!Pass"}

		// Act
		err := v.Validate(req)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("FiveDigitOTP", func(t *testing.T) {
		// Arrange
		req := verifyRequest{Email: "ada@example.com", OTP: "12345", NewPassword: "Str0ng!Pass"}

		// Act
		err := v.Validate(req)

		// Assert
		var verr V10ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected V10ValidationError, got %T", err)
		}
		if verr.Values()["otp"] != "otp must be exactly 6 digits" {
			t.Fatalf("unexpected otp message: %q", verr.Values()["otp"])
		}
	})

	t.Run("NonNumericOTP", func(t *testing.T) {
		err := v.Validate(verifyRequest{Email: "ada@example.com", OTP: "48291a", NewPassword: "Str0ng!Pass"})
		if err == nil {
			t.Fatal("expected error for non numeric otp")
		}
	})

	t.Run("FieldKeysFollowJSON", func(t *testing.T) {
		// Arrange
		req := verifyRequest{Email: "not-an-email", OTP: "482913", NewPassword: "short", Name: "A"}

		// Act
		err := v.Validate(req)

		// Assert
		var verr V10ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected V10ValidationError, got %T", err)
		}
		for _, key := range []string{"email", "newPassword", "name"} {
			if _, ok := verr[key]; !ok {
				t.Fatalf("expected key %q in %v", key, verr)
			}
		}
	})

	t.Run("PasswordTooLong", func(t *testing.T) {
		err := v.Validate(verifyRequest{Email: "ada@example.com", OTP: "482913", NewPassword: strings.Repeat("x", 73)})
		if err == nil {
			t.Fatal("expected error for 73 byte password")
		}
	})
}
