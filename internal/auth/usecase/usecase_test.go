package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/auth/outbound/memory"
	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/hash"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/jwt"
	"github.com/productivefire/server/internal/pkg/storage"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/pkg/validator"
)

type fixedOTP struct{ code string }

func (f fixedOTP) Generate() (string, error) { return f.code, nil }

type sentCode struct {
	to      string
	purpose entity.Purpose
	code    string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeMail) SendCode(_ context.Context, to string, p entity.Purpose, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCode{to: to, purpose: p, code: code})
	return nil
}

func (f *fakeMail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

type fakePublisher struct {
	mu      sync.Mutex
	created []AccountCreatedEvent
	changed []PasswordChangedEvent
}

func (f *fakePublisher) PublishAccountCreated(_ context.Context, msg AccountCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, msg)
	return nil
}

func (f *fakePublisher) PublishPasswordChanged(_ context.Context, msg PasswordChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.changed = append(f.changed, msg)
	return nil
}

// taskRunner runs background tasks inline unless held or full.
type taskRunner struct {
	mu    sync.Mutex
	hold  bool
	full  bool
	tasks []func()
}

func (r *taskRunner) Go(ctx context.Context, f func(context.Context) error) bool {
	r.mu.Lock()
	if r.full {
		r.mu.Unlock()
		return false
	}
	if r.hold {
		r.tasks = append(r.tasks, func() { _ = f(ctx) })
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	_ = f(ctx)
	return true
}

func (r *taskRunner) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tasks)
}

func (r *taskRunner) flush() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()

	for _, f := range tasks {
		f()
	}
}

type fixture struct {
	uc      *Usecase
	store   *memory.Store
	mail    *fakeMail
	bg      *taskRunner
	pub     *fakePublisher
	clock   *clock.Fake
	storage *storage.Memory
	cfg     *config.Viper
	otp     *fixedOTP
	jwt     *jwt.Symmetric
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  auth:
    skip_otp: false
storage:
  public_base_url: /uploads
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	c := clock.NewFake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	newJWT := func(secret, audience string, ttl time.Duration) *jwt.Symmetric {
		j, err := jwt.NewHS512(jwt.Config{
			Secret:    []byte(strings.Repeat(secret, 64)),
			Issuer:    "productivefire",
			Audiences: []string{audience},
			TTL:       ttl,
			Clock:     c,
			UUID:      uid.NewUUID(),
		})
		if err != nil {
			t.Fatalf("jwt: %v", err)
		}
		return j
	}

	sf, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	f := &fixture{
		store:   memory.New(),
		mail:    &fakeMail{},
		bg:      &taskRunner{},
		pub:     &fakePublisher{},
		clock:   c,
		storage: storage.NewMemory(),
		cfg:     cfg,
		otp:     &fixedOTP{code: "482913"},
		jwt:     newJWT("s", "session", 7*24*time.Hour),
	}
	f.uc = New(Dependency{
		RepoDB:        f.store,
		RepoMessaging: f.pub,
		RepoMail:      f.mail,
		Goroutine:     f.bg,
		Validator:     v,
		Config:        cfg,
		Storage:       f.storage,
		CodeHash:      hash.NewHMACSHA256("code-secret"),
		Password:      hash.NewBcrypt(4, ""),
		OTP:           f.otp,
		UID:           sf,
		UUID:          uid.NewUUID(),
		Clock:         c,
		JWT:           f.jwt,
		ResetJWT:      newJWT("r", "password-reset", 15*time.Minute),
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func (f *fixture) signup(t *testing.T, email, name, password string) *VerifySignupOutput {
	t.Helper()

	ctx := context.Background()
	if _, err := f.uc.SendSignupCode(ctx, SendSignupCodeInput{Email: email}); err != nil {
		t.Fatalf("SendSignupCode() error = %v", err)
	}
	out, err := f.uc.VerifySignup(ctx, VerifySignupInput{Email: email, OTP: f.otp.code, Name: name, Password: password})
	if err != nil {
		t.Fatalf("VerifySignup() error = %v", err)
	}
	return out
}

func (f *fixture) authCtx(id int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: id})
}

func assertCode(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if gerr.Code() != code {
		t.Fatalf("code = %s, want %s", gerr.Code(), code)
	}
	if msg != "" && gerr.Msg() != msg {
		t.Fatalf("message = %q, want %q", gerr.Msg(), msg)
	}
}
