package app

import (
	"log/slog"
	"os"

	"github.com/productivefire/server/internal/auth"
	"github.com/productivefire/server/internal/notification"
)

func (a *App) initModules() {
	if err := auth.New(auth.Dependency{
		Ctx:         a.ctx,
		DBConn:      a.dbConn,
		AuthLimiter: a.authLimiter,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Messaging:   a.messaging,
		Mail:        a.mail,
		Storage:     a.storage,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		UUID:        a.uuid,
		CodeHash:    a.codeHash,
		Password:    a.password,
		OTP:         a.otp,
		Clock:       a.clock,
		Validator:   a.validator,
		JWT:         a.jwt,
		ResetJWT:    a.resetJWT,
	}); err != nil {
		slog.Error("failed to init module auth", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Mail:        a.mail,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
