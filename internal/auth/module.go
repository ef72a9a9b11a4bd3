package auth

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/productivefire/server/internal/auth/inbound"
	"github.com/productivefire/server/internal/auth/outbound/db"
	"github.com/productivefire/server/internal/auth/outbound/mailer"
	"github.com/productivefire/server/internal/auth/outbound/memory"
	"github.com/productivefire/server/internal/auth/outbound/mq"
	"github.com/productivefire/server/internal/auth/usecase"
	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goroutine"
	"github.com/productivefire/server/internal/pkg/hash"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/jwt"
	"github.com/productivefire/server/internal/pkg/mail"
	"github.com/productivefire/server/internal/pkg/messaging"
	"github.com/productivefire/server/internal/pkg/otp"
	"github.com/productivefire/server/internal/pkg/ratelimit"
	"github.com/productivefire/server/internal/pkg/router"
	"github.com/productivefire/server/internal/pkg/storage"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/pkg/validator"
)

type Dependency struct {
	Ctx context.Context `validate:"required"`
	// DBConn selects the postgres store. Nil keeps state in memory.
	DBConn      *pgxpool.Pool
	AuthLimiter ratelimit.Limiter
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	CodeHash    *hash.HMACSHA256           `validate:"required"`
	Password    hash.Hash                  `validate:"required"`
	OTP         otp.Generator              `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
	ResetJWT    jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoMail:      mailer.New(dep.Mail, dep.Instrument),
		Goroutine:     dep.Goroutine,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		CodeHash:      dep.CodeHash,
		Password:      dep.Password,
		OTP:           dep.OTP,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		ResetJWT:      dep.ResetJWT,
		Instrument:    dep.Instrument,
	}
	if dep.DBConn != nil {
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)
	} else {
		slog.WarnContext(dep.Ctx, "auth store is in memory, accounts and codes are lost on restart")
		ucDep.RepoDB = memory.New()
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.HTTPOptions{
		AuthLimiter:  dep.AuthLimiter,
		Storage:      dep.Storage,
		DirectSignup: dep.Config.GetBool("modules.auth.skip_otp"),
	})

	if dep.DBConn != nil {
		inbound.RegisterSweeper(dep.Ctx, dep.Goroutine, dep.Config.GetDuration("modules.auth.sweep_interval"), uc)
	}

	return nil
}
