package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/mail"
	"github.com/productivefire/server/internal/wizard"
)

const testConfig = `
app:
  name: productivefire
  timezone: UTC
  node_id: 7
  cors:
    origins: "http://localhost:3000"
  server:
    max_goroutine: 50
    http:
      read_timeout_seconds: 5
      read_header_timeout_seconds: 5
      write_timeout_seconds: 5
      idle_timeout_seconds: 5
instrument:
  enabled: false
  service_name: productivefire-test
  log_level: error
  mask_fields: "password,newPassword,otp,token,resetToken"
jwt:
  issuer: productivefire
  session:
    secret: "session-secret-session-secret-session-secret-session-secret-session"
    audiences: "session"
    ttl: 168h
  reset:
    secret: "reset-secret-reset-secret-reset-secret-reset-secret-reset-secret-reset"
    audiences: "password-reset"
    ttl: 15m
hash:
  hmac:
    secret: "code-secret"
  password:
    algorithm: bcrypt
    bcrypt_cost: 4
store:
  driver: memory
ratelimit:
  driver: memory
  general:
    limit: 500
    window: 15m
  auth:
    limit: 20
    window: 15m
idempotency:
  driver: memory
mail:
  driver: memory
  from: "ProductiveFire <no-reply@productivefire.app>"
storage:
  driver: memory
  public_base_url: "http://localhost/uploads"
messaging:
  driver: memory
modules:
  auth:
    skip_otp: false
  notification:
    enabled: true
    concurrency: 2
    consumer_names: "auth_account_created_notification,auth_password_changed_notification"
    retry:
      base: 1ms
      cap: 5ms
      attempts: 2
`

type fixedOTP string

func (f fixedOTP) Generate() (string, error) { return string(f), nil }

type testServer struct {
	base   string
	outbox *mail.Memory
}

func startApp(t *testing.T, code string) testServer {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	outbox := mail.NewMemory(cfg.GetString("mail.from"))
	a := New(WithConfig(cfg), WithOTP(fixedOTP(code)), WithMail(outbox))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	errs := a.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(ctx)
		if err := <-errs; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})

	return testServer{base: "http://" + l.Addr().String(), outbox: outbox}
}

func (s testServer) post(t *testing.T, path string, body any) (int, []byte) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	resp, err := http.Post(s.base+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}

	return resp.StatusCode, out
}

func (s testServer) waitForMail(t *testing.T, to, subject string) mail.Message {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, m := range s.outbox.Sent() {
			if m.Subject == subject && len(m.To) > 0 && m.To[0] == to {
				return m
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no %q mail for %s", subject, to)

	return mail.Message{}
}

func signUp(t *testing.T, s testServer, name, email, password, code string) *wizard.Session {
	t.Helper()
	ctx := context.Background()

	w := wizard.NewSignup(wizard.NewClient(s.base+"/api", nil))
	defer w.Close()

	if err := w.SubmitProfile(ctx, wizard.Profile{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	}); err != nil {
		t.Fatalf("SubmitProfile() error = %v, errors = %+v", err, w.Errors())
	}
	if w.Step() != wizard.StepAwaitingCode {
		t.Fatalf("step = %s, want awaiting code", w.Step())
	}

	w.Paste(code)
	if err := w.SubmitCode(ctx); err != nil {
		t.Fatalf("SubmitCode() error = %v, errors = %+v", err, w.Errors())
	}

	return w.Session()
}

func TestSignupEndToEnd(t *testing.T) {
	// Arrange
	s := startApp(t, "482913")

	// Act
	session := signUp(t, s, "Ada", "ada@example.com", "Str0ng!Pass", "482913")

	// Assert
	if session == nil || session.Token == "" {
		t.Fatalf("expected a session token, got %+v", session)
	}
	if session.User.Email != "ada@example.com" || session.User.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", session.User)
	}

	code := s.waitForMail(t, "ada@example.com", "Verify Your Email - ProductiveFire")
	if !strings.Contains(code.HTMLBody, "482913") {
		t.Fatalf("verification mail does not carry the code")
	}
	s.waitForMail(t, "ada@example.com", "Welcome to ProductiveFire")

	t.Run("CodeIsSingleUse", func(t *testing.T) {
		status, _ := s.post(t, "/api/auth/verify-signup", map[string]string{
			"email": "ada@example.com", "otp": "482913", "name": "Ada", "password": "Str0ng!Pass",
		})
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
	})

	t.Run("SignInWithNewAccount", func(t *testing.T) {
		status, body := s.post(t, "/api/auth/signin", map[string]string{
			"email": "ada@example.com", "password": "Str0ng!Pass",
		})
		if status != http.StatusOK {
			t.Fatalf("status = %d, body = %s", status, body)
		}
	})
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	// Arrange
	s := startApp(t, "135790")
	signUp(t, s, "Grace", "grace@example.com", "Str0ng!Pass", "135790")

	// Act
	knownStatus, known := s.post(t, "/api/auth/forgot-password", map[string]string{"email": "grace@example.com"})
	unknownStatus, unknown := s.post(t, "/api/auth/forgot-password", map[string]string{"email": "nobody@example.com"})

	// Assert
	if knownStatus != http.StatusOK || unknownStatus != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", knownStatus, unknownStatus)
	}
	if !bytes.Equal(known, unknown) {
		t.Fatalf("responses differ:\n%s\n%s", known, unknown)
	}
	s.waitForMail(t, "grace@example.com", "Reset Your Password - ProductiveFire")
	if _, ok := s.outbox.Last("nobody@example.com"); ok {
		t.Fatalf("unknown address must not receive mail")
	}
}

func TestPasswordResetEndToEnd(t *testing.T) {
	// Arrange
	s := startApp(t, "246810")
	signUp(t, s, "Linus", "linus@example.com", "Str0ng!Pass", "246810")
	ctx := context.Background()

	w := wizard.NewReset(wizard.NewClient(s.base+"/api", nil))
	defer w.Close()

	// Act
	if err := w.SubmitEmail(ctx, "linus@example.com"); err != nil {
		t.Fatalf("SubmitEmail() error = %v", err)
	}
	s.waitForMail(t, "linus@example.com", "Reset Your Password - ProductiveFire")
	w.Paste("246810")
	if err := w.SubmitCode(ctx); err != nil {
		t.Fatalf("SubmitCode() error = %v, errors = %+v", err, w.Errors())
	}
	token := w.ResetToken()
	if err := w.SubmitNewPassword(ctx, "NewPass1!", "NewPass1!"); err != nil {
		t.Fatalf("SubmitNewPassword() error = %v, errors = %+v", err, w.Errors())
	}

	// Assert
	if w.Step() != wizard.StepCompleted {
		t.Fatalf("step = %s, want completed", w.Step())
	}

	t.Run("OldPasswordRejected", func(t *testing.T) {
		status, _ := s.post(t, "/api/auth/signin", map[string]string{
			"email": "linus@example.com", "password": "Str0ng!Pass",
		})
		if status != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", status)
		}
	})

	t.Run("NewPasswordAccepted", func(t *testing.T) {
		status, body := s.post(t, "/api/auth/signin", map[string]string{
			"email": "linus@example.com", "password": "NewPass1!",
		})
		if status != http.StatusOK {
			t.Fatalf("status = %d, body = %s", status, body)
		}
	})

	t.Run("ResetTokenIsSingleUse", func(t *testing.T) {
		status, _ := s.post(t, "/api/auth/reset-password", map[string]string{
			"resetToken": token, "newPassword": "Another1!",
		})
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
	})

	t.Run("ChangeNotificationSent", func(t *testing.T) {
		s.waitForMail(t, "linus@example.com", "Your ProductiveFire Password Was Changed")
	})
}
