package mail

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_Send(t *testing.T) {
	t.Run("RecordsMessage", func(t *testing.T) {
		// Arrange
		m := NewMemory("noreply@productivefire.app")

		// Act
		err := m.Send(context.Background(), Message{To: []string{"ada@example.com"}, Subject: "hi", HTMLBody: "<p>hi</p>"})

		// Assert
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		got, ok := m.Last("ada@example.com")
		if !ok || got.Subject != "hi" || got.From != "noreply@productivefire.app" {
			t.Fatalf("unexpected outbox: %+v", m.Sent())
		}
	})

	t.Run("NoRecipients", func(t *testing.T) {
		err := NewMemory("a@b.c").Send(context.Background(), Message{Subject: "x"})
		if !errors.Is(err, ErrNoRecipients) {
			t.Fatalf("expected ErrNoRecipients, got %v", err)
		}
	})

	t.Run("NoSender", func(t *testing.T) {
		err := NewMemory("").Send(context.Background(), Message{To: []string{"ada@example.com"}})
		if !errors.Is(err, ErrNoSender) {
			t.Fatalf("expected ErrNoSender, got %v", err)
		}
	})

	t.Run("FailWith", func(t *testing.T) {
		// Arrange
		m := NewMemory("a@b.c")
		boom := errors.New("smtp down")
		m.FailWith(boom)

		// Act
		err := m.Send(context.Background(), Message{To: []string{"ada@example.com"}})

		// Assert
		if !errors.Is(err, boom) {
			t.Fatalf("expected configured failure, got %v", err)
		}
		if len(m.Sent()) != 0 {
			t.Fatal("failed message must not be recorded")
		}
	})
}

func TestNewFromDriver(t *testing.T) {
	if _, err := NewFromDriver("smtp", SMTPConfig{}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}
	if m, err := NewFromDriver("memory", SMTPConfig{}); err != nil || m == nil {
		t.Fatalf("expected memory driver, got %v", err)
	}
	if _, err := NewFromDriver("ses", SMTPConfig{}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
