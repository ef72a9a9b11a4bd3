package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"UserID":      "user_id",
		"HTTPServer":  "http_server",
		"newPassword": "new_password",
		"OTP":         "otp",
		"reset-token": "reset_token",
	}

	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Errorf("ToLowerSnake(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToLowerCamel(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"ResetToken":   "resetToken",
		"UserID":       "userId",
		"new_password": "newPassword",
		"Email":        "email",
		"OTP":          "otp",
	}

	for in, want := range tests {
		if got := ToLowerCamel(in); got != want {
			t.Errorf("ToLowerCamel(%q) = %q, want %q", in, got, want)
		}
	}
}
