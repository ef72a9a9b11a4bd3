package mailer

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/mail"
	"go.opentelemetry.io/otel/trace"
)

//go:embed template/*.html
var templates embed.FS

var codeTemplate = template.Must(template.ParseFS(templates, "template/code.html"))

const (
	SubjectSignup        = "Verify Your Email - ProductiveFire"
	SubjectPasswordReset = "Reset Your Password - ProductiveFire"
)

type codeView struct {
	Title            string
	Message          string
	Code             string
	Action           string
	ExpiresInMinutes int
}

type Mailer struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mailer {
	return &Mailer{client: client, ins: ins}
}

func (m *Mailer) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("auth.outbound.mailer").Start(ctx, name)
}

// SendCode renders the verification email for purpose and delivers it.
func (m *Mailer) SendCode(ctx context.Context, to string, purpose entity.Purpose, code string) (err error) {
	ctx, span := m.startSpan(ctx, "SendCode")
	defer func() { instrument.EndSpan(span, err) }()

	subject, html, err := RenderCode(purpose, code, entity.CodeTTL)
	if err != nil {
		return err
	}

	err = m.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: html,
	})
	return err
}

// RenderCode returns the subject and HTML body of a code email.
func RenderCode(purpose entity.Purpose, code string, ttl time.Duration) (subject, html string, err error) {
	view := codeView{
		Code:             code,
		ExpiresInMinutes: int(ttl / time.Minute),
	}

	switch purpose {
	case entity.PurposePasswordReset:
		subject = SubjectPasswordReset
		view.Title = "Reset Your Password"
		view.Message = "You requested to reset your password. Use the code below to proceed:"
		view.Action = "password reset"
	default:
		subject = SubjectSignup
		view.Title = "Verify Your Email"
		view.Message = "Welcome to ProductiveFire! Please verify your email address with the code below:"
		view.Action = "verification"
	}

	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, view); err != nil {
		return "", "", err
	}

	return subject, buf.String(), nil
}
