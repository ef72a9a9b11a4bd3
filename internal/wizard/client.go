package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// ErrUnexpectedResponse is returned when a response body is not the JSON
// envelope of the API.
var ErrUnexpectedResponse = errors.New("wizard: unexpected response")

// APIError is a non-2xx response of the auth API.
type APIError struct {
	Status     int
	Message    string
	Fields     map[string]string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wizard: api status %d: %s", e.Status, e.Message)
}

// User is the account returned after signup.
type User struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"emailVerified"`
	Avatar        *string        `json:"avatar"`
	Settings      map[string]any `json:"settings"`
	Streak        int            `json:"streak"`
	JoinDate      time.Time      `json:"joinDate"`
	LastLogin     time.Time      `json:"lastLogin"`
}

// Session is the credential established by a completed signup.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// API is the part of the auth API the wizard needs. Client implements it.
type API interface {
	SendSignupCode(ctx context.Context, email string) (string, error)
	VerifySignup(ctx context.Context, email, otp, name, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error)
}

// Client speaks the JSON protocol of the /api/auth endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client rooted at baseURL, e.g. "http://localhost:3000/api".
// A nil hc uses a client with a 15 second timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Error      map[string]string `json:"error"`
	RetryAfter int64             `json:"retryAfter"`
}

func (c *Client) SendSignupCode(ctx context.Context, email string) (string, error) {
	var out envelope
	err := c.post(ctx, "/auth/send-signup-otp", map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) VerifySignup(ctx context.Context, email, otp, name, password string) (*Session, error) {
	var out Session
	err := c.post(ctx, "/auth/verify-signup", map[string]string{
		"email":    email,
		"otp":      otp,
		"name":     name,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out envelope
	err := c.post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) VerifyResetCode(ctx context.Context, email, otp string) (string, error) {
	var out struct {
		ResetToken string `json:"resetToken"`
	}
	err := c.post(ctx, "/auth/verify-reset-code", map[string]string{"email": email, "otp": otp}, &out)
	return out.ResetToken, err
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	var out envelope
	err := c.post(ctx, "/auth/reset-password", map[string]string{
		"resetToken":  resetToken,
		"newPassword": newPassword,
	}, &out)
	return out.Message, err
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
		apiErr.Message = env.Message
		apiErr.Fields = env.Error
		apiErr.RetryAfter = time.Duration(env.RetryAfter) * time.Second
	}

	if apiErr.RetryAfter == 0 {
		if secs, err := strconv.ParseInt(resp.Header.Get("Retry-After"), 10, 64); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}
