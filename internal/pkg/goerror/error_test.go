package goerror

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Server", NewServer(errors.New("db down")), http.StatusInternalServerError},
		{"ServerMsg", NewServerMsg(errors.New("smtp"), "Failed to send"), http.StatusInternalServerError},
		{"InvalidFormat", NewInvalidFormat(), http.StatusBadRequest},
		{"InvalidInput", NewInvalidInput(nil, "email", "required"), http.StatusBadRequest},
		{"AlreadyExists", NewBusiness("exists", CodeAlreadyExists), http.StatusBadRequest},
		{"InvalidOrExpired", NewBusiness("expired", CodeInvalidOrExpired), http.StatusBadRequest},
		{"Unauthorized", NewBusiness("nope", CodeUnauthorized), http.StatusUnauthorized},
		{"NotFound", NewBusiness("missing", CodeNotFound), http.StatusNotFound},
		{"TooMany", NewTooManyRequest("slow down", time.Minute), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if !errors.As(tt.err, &gerr) {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewServerMsg(t *testing.T) {
	// Arrange
	cause := errors.New("dial tcp: refused")

	// Act
	err := NewServerMsg(cause, "Failed to send verification email")

	// Assert
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error")
	}
	if gerr.Msg() != "Failed to send verification email" {
		t.Fatalf("unexpected msg: %q", gerr.Msg())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped")
	}
}

func TestNewBusiness_Fields(t *testing.T) {
	// Act
	err := NewBusiness("User already exists with this email", CodeAlreadyExists, "email", "User already exists with this email")

	// Assert
	var gerr *Error
	errors.As(err, &gerr)
	if gerr.Fields()["email"] == "" {
		t.Fatalf("expected email field, got %v", gerr.Fields())
	}
}

func TestNewTooManyRequest(t *testing.T) {
	// Act
	err := NewTooManyRequest("Too many requests", 90*time.Second)

	// Assert
	var gerr *Error
	errors.As(err, &gerr)
	if gerr.RetryAfter() != 90*time.Second {
		t.Fatalf("unexpected retry after: %v", gerr.RetryAfter())
	}
}
