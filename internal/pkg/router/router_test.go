package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/jwt"
	"github.com/productivefire/server/internal/pkg/ratelimit"
)

type stubJWT struct{}

func (stubJWT) Generate(int64, string) (string, error) { return "tok", nil }

func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 7, UserEmail: "ada@example.com"}, nil
}

type greeting struct {
	Name string `json:"name"`
}

func (greeting) Message() string { return "hello" }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func newTestRouter(t *testing.T, limiter ratelimit.Limiter) *Router {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: []\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := NewRouter(Config{Config: cfg, JWT: stubJWT{}, Limiter: limiter})
	r.Public(http.MethodGet, "/api/hello")
	r.GET("/api/hello", func(*Request) (any, error) { return greeting{Name: "ada"}, nil })
	r.GET("/api/me", func(req *Request) (any, error) {
		return map[string]any{"email": jwt.GetAuth(req.Context()).UserEmail}, nil
	})
	r.Public(http.MethodPost, "/api/fail")
	r.POST("/api/fail", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("User already exists with this email", goerror.CodeAlreadyExists, "email", "User already exists with this email")
	})
	r.Public(http.MethodGet, "/api/boom")
	r.GET("/api/boom", func(*Request) (any, error) { return nil, errors.New("db down") })

	return r
}

func TestRouter_Envelope(t *testing.T) {
	t.Run("success is flattened", func(t *testing.T) {
		// Arrange
		r := newTestRouter(t, nil)
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hello", nil))

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decode(t, rec)
		if body["success"] != true || body["name"] != "ada" || body["message"] != "hello" {
			t.Fatalf("body = %v", body)
		}
	})

	t.Run("business error carries field map", func(t *testing.T) {
		// Arrange
		r := newTestRouter(t, nil)
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fail", nil))

		// Assert
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decode(t, rec)
		fields, _ := body["error"].(map[string]any)
		if body["success"] != false || fields["email"] != "User already exists with this email" {
			t.Fatalf("body = %v", body)
		}
	})

	t.Run("unmapped error hides detail", func(t *testing.T) {
		// Arrange
		r := newTestRouter(t, nil)
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom", nil))

		// Assert
		body := decode(t, rec)
		if rec.Code != http.StatusInternalServerError || body["message"] != "Internal server error" {
			t.Fatalf("status = %d body = %v", rec.Code, body)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		// Arrange
		r := newTestRouter(t, nil)
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

		// Assert
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestRouter_Authentication(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing token", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusForbidden},
		{name: "valid token", header: "Bearer good", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newTestRouter(t, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	// Arrange
	fc := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	lim, err := ratelimit.NewMemory(ratelimit.Rule{Name: "test", Limit: 2, Window: time.Minute}, fc)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	r := newTestRouter(t, lim)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/hello", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// Act
	first, second, third := do(), do(), do()

	// Assert
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("first=%d second=%d", first.Code, second.Code)
	}
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("third = %d", third.Code)
	}
	if third.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", third.Header().Get("Retry-After"))
	}
	if body := decode(t, third); body["retryAfter"] != float64(60) {
		t.Fatalf("body = %v", body)
	}

	fc.Advance(time.Minute)
	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("after window = %d", rec.Code)
	}
}

func TestRouter_Maintenance(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: [\"GET:/api/hello\"]\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r := NewRouter(Config{Config: cfg, JWT: stubJWT{}})
	r.Public(http.MethodGet, "/api/hello")
	r.GET("/api/hello", func(*Request) (any, error) { return greeting{}, nil })
	rec := httptest.NewRecorder()

	// Act
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hello", nil))

	// Assert
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequest_DecodeBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"email":"a@b.co","extra":1}`},
		{name: "trailing document", body: `{"email":"a@b.co"}{}`, wantErr: true},
		{name: "malformed", body: `{"email":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			var dst struct {
				Email string `json:"email"`
			}

			// Act
			err := req.DecodeBody(&dst)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
