package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goroutine"
	"github.com/productivefire/server/internal/pkg/hash"
	"github.com/productivefire/server/internal/pkg/idempotency"
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
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	codeHash  *hash.HMACSHA256
	password  hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	otp       otp.Generator
	jwt       jwt.JWT
	resetJWT  jwt.JWT

	// resources
	dbConn         *pgxpool.Pool
	cacheConn      *redis.Client
	generalLimiter ratelimit.Limiter
	authLimiter    ratelimit.Limiter
	idemp          idempotency.Store
	mail           mail.Mail
	messaging      messaging.Messaging
	storage        storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// Option overrides a dependency before the app is wired. Used by tests.
type Option func(*App)

// WithConfig skips loading the config file.
func WithConfig(cfg config.Config) Option {
	return func(a *App) { a.config = cfg }
}

// WithOTP replaces the verification code generator.
func WithOTP(g otp.Generator) Option {
	return func(a *App) { a.otp = g }
}

// WithMail replaces the configured mail driver.
func WithMail(m mail.Mail) Option {
	return func(a *App) { a.mail = m }
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clocker) Option {
	return func(a *App) { a.clock = c }
}

// New initializes the application with default wiring and returns an App instance.
func New(opts ...Option) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(app)
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initRateLimit()
	app.initIdempotency()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
