package email

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/mail"
)

//go:embed template/*.html
var templates embed.FS

var (
	welcomeTemplate         = template.Must(template.ParseFS(templates, "template/welcome.html"))
	passwordChangedTemplate = template.Must(template.ParseFS(templates, "template/password_changed.html"))
)

const (
	SubjectWelcome         = "Welcome to ProductiveFire"
	SubjectPasswordChanged = "Your ProductiveFire Password Was Changed"

	fallbackName = "there"
	timeLayout   = "Jan 2, 2006 at 15:04 MST"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) SendWelcome(ctx context.Context, to, name string) (err error) {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendWelcome")
	defer func() { instrument.EndSpan(span, err) }()

	if name == "" {
		name = fallbackName
	}

	body, err := render(welcomeTemplate, map[string]string{"Name": name, "Email": to})
	if err != nil {
		return err
	}

	err = m.client.Send(ctx, mail.Message{To: []string{to}, Subject: SubjectWelcome, HTMLBody: body})
	return err
}

func (m *Mail) SendPasswordChanged(ctx context.Context, to string, at time.Time) (err error) {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendPasswordChanged")
	defer func() { instrument.EndSpan(span, err) }()

	body, err := render(passwordChangedTemplate, map[string]string{"Email": to, "At": at.Format(timeLayout)})
	if err != nil {
		return err
	}

	err = m.client.Send(ctx, mail.Message{To: []string{to}, Subject: SubjectPasswordChanged, HTMLBody: body})
	return err
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
