package usecase

import (
	"context"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/idempotency"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRetryBase     = 200 * time.Millisecond
	defaultRetryCap      = 5 * time.Second
	defaultRetryAttempts = 4
)

type repoMail interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordChanged(ctx context.Context, to string, at time.Time) error
}

type Usecase struct {
	repoMail  repoMail
	idem      idempotency.Store
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail    repoMail
	Idempotency idempotency.Store
	Config      config.Config
	Clock       clock.Clocker
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		idem:      dep.Idempotency,
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
