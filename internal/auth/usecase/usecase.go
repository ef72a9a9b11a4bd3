package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/hash"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/jwt"
	"github.com/productivefire/server/internal/pkg/otp"
	"github.com/productivefire/server/internal/pkg/storage"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type AccountCreatedEvent struct {
	EventID    string
	AccountID  int64
	Email      string
	Name       string
	OccurredAt time.Time
}

type PasswordChangedEvent struct {
	EventID    string
	AccountID  int64
	Email      string
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishAccountCreated(ctx context.Context, msg AccountCreatedEvent) error
	PublishPasswordChanged(ctx context.Context, msg PasswordChangedEvent) error
}

// runner schedules background work; *goroutine.Manager in production.
type runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error) bool
}

type repoMail interface {
	SendCode(ctx context.Context, to string, purpose entity.Purpose, code string) error
}

type repoDB interface {
	ReplaceCode(ctx context.Context, code entity.VerificationCode) error
	GetActiveCode(ctx context.Context, email string, p entity.Purpose, now time.Time) (*entity.VerificationCode, error)
	PurgeExpiredCodes(ctx context.Context, email string, p entity.Purpose, now time.Time) (int64, error)
	DeleteCode(ctx context.Context, email string, p entity.Purpose, digest string) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (codes, grants int64, err error)

	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*entity.Account, error)
	GetProgress(ctx context.Context, id int64) (*entity.Progress, error)

	CreateAccount(ctx context.Context, in entity.NewAccount) error
	ResetPassword(ctx context.Context, in entity.PasswordReset) error
	UpdateLogin(ctx context.Context, id int64, at time.Time, streak int) error
	UpdateProfile(ctx context.Context, in entity.ProfileUpdate) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoMail      repoMail
	goroutine     runner
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	codeHash      *hash.HMACSHA256
	password      hash.Hash
	otp           otp.Generator
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	resetJWT      jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoMail      repoMail
	Goroutine     runner
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	CodeHash      *hash.HMACSHA256
	Password      hash.Hash
	OTP           otp.Generator
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	ResetJWT      jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		goroutine:     dep.Goroutine,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		codeHash:      dep.CodeHash,
		password:      dep.Password,
		otp:           dep.OTP,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		resetJWT:      dep.ResetJWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) skipOTP() bool {
	return s.cfg.GetBool("modules.auth.skip_otp")
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 {
		return nil, goerror.NewBusiness("Access token required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ---- //

// User is the client view of an account. It never carries the password hash.
type User struct {
	ID            int64
	Name          string
	Email         string
	EmailVerified bool
	Avatar        *string
	Settings      map[string]any
	Streak        int
	JoinDate      time.Time
	LastLogin     time.Time
}

func newUser(a *entity.Account) User {
	return User{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		Avatar:        a.Avatar,
		Settings:      a.Settings.Clone(),
		Streak:        a.Streak,
		JoinDate:      a.JoinDate,
		LastLogin:     a.LastLogin,
	}
}

func errAlreadyExists() error {
	const msg = "User already exists with this email"
	return goerror.NewBusiness(msg, goerror.CodeAlreadyExists, "email", msg)
}

func errInvalidCode(p entity.Purpose) error {
	if p == entity.PurposePasswordReset {
		return goerror.NewBusiness("Invalid or expired reset code", goerror.CodeInvalidOrExpired)
	}
	return goerror.NewBusiness("Invalid or expired verification code", goerror.CodeInvalidOrExpired)
}

func errInvalidGrant() error {
	return goerror.NewBusiness("Invalid or expired reset token", goerror.CodeInvalidOrExpired)
}

func errUserNotFound() error {
	return goerror.NewBusiness("User not found", goerror.CodeNotFound)
}
