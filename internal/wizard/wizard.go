package wizard

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
	"go.uber.org/atomic"
)

var (
	ErrBusy         = errors.New("wizard: a request is already in flight")
	ErrWrongStep    = errors.New("wizard: action not allowed in the current step")
	ErrInvalidInput = errors.New("wizard: invalid input")
	ErrCodeExpired  = errors.New("wizard: code expired")
	ErrClosed       = errors.New("wizard: closed")
)

const (
	msgCodeExpired    = "Verification code has expired. Please request a new one."
	msgCodeIncomplete = "Please enter the complete 6-digit code"
)

type Flow int

const (
	FlowSignup Flow = iota + 1
	FlowReset
)

type Step int

const (
	StepCollectingProfile Step = iota + 1
	StepAwaitingCode
	StepResetCollectingEmail
	StepResetAwaitingCode
	StepResetSettingPassword
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepCollectingProfile:
		return "collecting_profile"
	case StepAwaitingCode:
		return "awaiting_code"
	case StepResetCollectingEmail:
		return "reset_collecting_email"
	case StepResetAwaitingCode:
		return "reset_awaiting_code"
	case StepResetSettingPassword:
		return "reset_setting_password"
	case StepCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s Step) awaitingCode() bool {
	return s == StepAwaitingCode || s == StepResetAwaitingCode
}

// Errors is the inline error display. Fields are keyed by JSON field name.
type Errors struct {
	Fields     map[string]string
	General    string
	RetryAfter time.Duration
}

func (e Errors) Empty() bool {
	return len(e.Fields) == 0 && e.General == ""
}

// Profile is the signup form. It stays in memory until the code is verified.
type Profile struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type Option func(*Wizard)

// WithClock replaces the real clock, e.g. with clock.Fake in tests.
func WithClock(c clock.TickerClocker) Option {
	return func(w *Wizard) { w.clock = c }
}

// WithTickHandler is called about once a second with the time left. It runs
// on the countdown goroutine and must not call back into the Wizard.
func WithTickHandler(f func(remaining time.Duration)) Option {
	return func(w *Wizard) { w.onTick = f }
}

// WithExpireHandler is called once when the countdown reaches zero. Same
// restriction as WithTickHandler.
func WithExpireHandler(f func()) Option {
	return func(w *Wizard) { w.onExpire = f }
}

// Wizard is one run of the signup or reset flow. Actions that hit the API
// are serialized: a second one started while the first is in flight fails
// with ErrBusy. Errors never move the step backwards.
type Wizard struct {
	api      API
	flow     Flow
	clock    clock.TickerClocker
	onTick   func(time.Duration)
	onExpire func()
	timer    *countdown

	busy    atomic.Bool
	closed  atomic.Bool
	expired atomic.Bool

	mu         sync.Mutex
	step       Step
	errs       Errors
	code       CodeInput
	pending    Profile
	email      string
	session    *Session
	resetToken string
	notice     string
}

// NewSignup starts a signup wizard at StepCollectingProfile.
func NewSignup(api API, opts ...Option) *Wizard {
	return newWizard(api, FlowSignup, StepCollectingProfile, opts...)
}

// NewReset starts a password reset wizard at StepResetCollectingEmail.
func NewReset(api API, opts ...Option) *Wizard {
	return newWizard(api, FlowReset, StepResetCollectingEmail, opts...)
}

func newWizard(api API, flow Flow, step Step, opts ...Option) *Wizard {
	w := &Wizard{api: api, flow: flow, step: step, clock: clock.New()}
	for _, opt := range opts {
		opt(w)
	}

	w.timer = newCountdown(w.clock, w.onTick, func() {
		w.expired.Store(true)
		if w.onExpire != nil {
			w.onExpire()
		}
	})

	return w
}

// Close cancels the countdown. Every later action returns ErrClosed.
func (w *Wizard) Close() {
	w.closed.Store(true)
	w.timer.halt()
}

// begin claims the in-flight slot. The caller must run the returned func
// when the request finishes.
func (w *Wizard) begin() (func(), error) {
	if w.closed.Load() {
		return nil, ErrClosed
	}
	if !w.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	return func() { w.busy.Store(false) }, nil
}

func (w *Wizard) Flow() Flow {
	return w.flow
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.step
}

// Busy reports whether a request is in flight; a UI disables its submit
// control while it is true.
func (w *Wizard) Busy() bool {
	return w.busy.Load()
}

// Errors returns a copy of the inline errors, including the expiry prompt
// once the countdown has run out.
func (w *Wizard) Errors() Errors {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.errs
	out.Fields = maps.Clone(w.errs.Fields)
	if out.General == "" && w.step.awaitingCode() && (w.expired.Load() || w.timer.expired()) {
		out.General = msgCodeExpired
	}

	return out
}

// Notice is the last success message from the API.
func (w *Wizard) Notice() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.notice
}

// Email is the address the code was sent to.
func (w *Wizard) Email() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.email
}

// Remaining is the time left on the code while one is awaited, else zero.
func (w *Wizard) Remaining() time.Duration {
	if !w.Step().awaitingCode() {
		return 0
	}
	return w.timer.remaining()
}

// Expired reports whether the awaited code ran out. Submission is refused
// until a resend.
func (w *Wizard) Expired() bool {
	return w.Step().awaitingCode() && w.timer.expired()
}

// Session is set once signup completes.
func (w *Wizard) Session() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session == nil {
		return nil
	}
	s := *w.session
	return &s
}

// ResetToken is the grant kept between code verification and the new
// password step.
func (w *Wizard) ResetToken() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.resetToken
}

// Type enters a digit into the focused code cell.
func (w *Wizard) Type(d rune) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.code.Type(d)
	w.clearField("otp")
}

func (w *Wizard) Backspace() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.code.Backspace()
}

func (w *Wizard) Paste(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.code.Paste(text)
	w.clearField("otp")
}

func (w *Wizard) Cells() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.code.Cells()
}

func (w *Wizard) Focused() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.code.Focused()
}

func (w *Wizard) clearField(name string) {
	delete(w.errs.Fields, name)
}

// SubmitCode verifies the entered code. Signup completes with a Session;
// reset moves on to the new password step. A rejected code clears the cells
// and keeps the step.
func (w *Wizard) SubmitCode(ctx context.Context) error {
	done, err := w.begin()
	if err != nil {
		return err
	}
	defer done()

	w.mu.Lock()
	if !w.step.awaitingCode() {
		w.mu.Unlock()
		return ErrWrongStep
	}
	if w.timer.expired() {
		w.errs = Errors{General: msgCodeExpired}
		w.mu.Unlock()
		return ErrCodeExpired
	}
	if !w.code.Complete() {
		w.errs = Errors{Fields: map[string]string{"otp": msgCodeIncomplete}}
		w.mu.Unlock()
		return ErrInvalidInput
	}
	otp, email, pending := w.code.Code(), w.email, w.pending
	w.mu.Unlock()

	if w.flow == FlowSignup {
		return w.verifySignup(ctx, email, otp, pending)
	}
	return w.verifyReset(ctx, email, otp)
}

// Resend requests a fresh code, clears the cells and restarts the countdown
// at the full ten minutes.
func (w *Wizard) Resend(ctx context.Context) error {
	done, err := w.begin()
	if err != nil {
		return err
	}
	defer done()

	w.mu.Lock()
	step, email := w.step, w.email
	w.mu.Unlock()
	if !step.awaitingCode() {
		return ErrWrongStep
	}

	var msg string
	if w.flow == FlowSignup {
		msg, err = w.api.SendSignupCode(ctx, email)
	} else {
		msg, err = w.api.ForgotPassword(ctx, email)
	}
	if err != nil {
		w.setErrors(errorsFrom(err, "", "Failed to resend code"))
		return err
	}

	if err := w.restartTimer(); err != nil {
		return err
	}

	w.mu.Lock()
	w.code.Clear()
	w.errs = Errors{}
	w.notice = msg
	w.mu.Unlock()

	return nil
}

func (w *Wizard) setErrors(e Errors) {
	w.mu.Lock()
	w.errs = e
	w.mu.Unlock()
}

// restartTimer runs a fresh countdown unless the wizard was closed while a
// request was in flight. A Close racing the start still halts the new timer.
func (w *Wizard) restartTimer() error {
	if w.closed.Load() {
		return ErrClosed
	}

	w.timer.start()
	if w.closed.Load() {
		w.timer.halt()
		return ErrClosed
	}
	w.expired.Store(false)

	return nil
}

// awaitCode moves into the code step after a code was sent to email.
func (w *Wizard) awaitCode(step Step, email, notice string) error {
	if err := w.restartTimer(); err != nil {
		return err
	}

	w.mu.Lock()
	w.step = step
	w.email = email
	w.notice = notice
	w.errs = Errors{}
	w.code.Clear()
	w.mu.Unlock()

	return nil
}

// errorsFrom turns an API failure into inline errors. Server field errors
// win; otherwise the message lands on field, or in General when field is "".
// Transport failures use fallback.
func errorsFrom(err error, field, fallback string) Errors {
	var e Errors

	msg := fallback
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		e.RetryAfter = apiErr.RetryAfter
		if len(apiErr.Fields) > 0 {
			e.Fields = maps.Clone(apiErr.Fields)
			return e
		}
	}

	if field == "" {
		e.General = msg
	} else {
		e.Fields = map[string]string{field: msg}
	}

	return e
}
