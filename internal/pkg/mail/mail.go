package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default are empty.
	ErrNoSender = errors.New("mail: no sender provided")
)

// Message represents an email payload.
type Message struct {
	// From is an optional explicit sender; the driver default applies when empty.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail abstracts an email provider (SMTP, third-party API, etc).
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Driver names accepted by NewFromDriver.
const (
	DriverSMTP   = "smtp"
	DriverMemory = "memory"
)

// NewFromDriver builds the Mail implementation named by driver.
func NewFromDriver(driver string, smtpCfg SMTPConfig) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSMTP:
		return NewSMTP(smtpCfg)
	case "", DriverMemory:
		return NewMemory(smtpCfg.From), nil
	default:
		return nil, fmt.Errorf("mail: unsupported driver %q", driver)
	}
}

func (m Message) recipients() int {
	return len(m.To) + len(m.Cc) + len(m.Bcc)
}

func (m Message) sender(fallback string) (string, error) {
	if m.recipients() == 0 {
		return "", ErrNoRecipients
	}
	if m.From != "" {
		return m.From, nil
	}
	if fallback == "" {
		return "", ErrNoSender
	}

	return fallback, nil
}
