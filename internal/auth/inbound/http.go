package inbound

import (
	"context"
	"net/http"

	"github.com/productivefire/server/internal/auth/usecase"
	"github.com/productivefire/server/internal/pkg/ratelimit"
	"github.com/productivefire/server/internal/pkg/router"
	"github.com/productivefire/server/internal/pkg/storage"
)

type uc interface {
	SendSignupCode(ctx context.Context, in usecase.SendSignupCodeInput) (*usecase.SendSignupCodeOutput, error)
	VerifySignup(ctx context.Context, in usecase.VerifySignupInput) (*usecase.VerifySignupOutput, error)
	ForgotPassword(ctx context.Context, in usecase.ForgotPasswordInput) error
	VerifyResetCode(ctx context.Context, in usecase.VerifyResetCodeInput) (*usecase.VerifyResetCodeOutput, error)
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) error

	SignIn(ctx context.Context, in usecase.SignInInput) (*usecase.SignInOutput, error)
	SignUp(ctx context.Context, in usecase.SignUpInput) (*usecase.VerifySignupOutput, error)

	Profile(ctx context.Context) (*usecase.User, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*usecase.User, error)
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) (*usecase.User, error)
	Progress(ctx context.Context) (*usecase.ProgressOutput, error)

	Health(ctx context.Context) *usecase.HealthOutput
}

// HTTPOptions carries what the route table needs beyond the usecase.
type HTTPOptions struct {
	// AuthLimiter guards every /api/auth route. Nil disables it.
	AuthLimiter ratelimit.Limiter
	// Storage serves stored avatars under /uploads.
	Storage storage.Storage
	// DirectSignup registers /api/auth/signup.
	DirectSignup bool
}

const authLimitMessage = "Too many authentication attempts, please try again later."

func RegisterHTTPEndpoint(r *router.Router, uc uc, opts HTTPOptions) {
	end := &HTTPEndpoint{uc: uc}

	var authMws []router.Middleware
	if opts.AuthLimiter != nil {
		authMws = append(authMws, router.RateLimit(opts.AuthLimiter, authLimitMessage))
	}

	// Email verification
	r.Public(http.MethodPost, "/api/auth/send-signup-otp")
	r.Public(http.MethodPost, "/api/auth/verify-signup")
	r.POST("/api/auth/send-signup-otp", end.SendSignupCode, authMws...)
	r.POST("/api/auth/verify-signup", end.VerifySignup, authMws...)

	// Password reset
	r.Public(http.MethodPost, "/api/auth/forgot-password")
	r.Public(http.MethodPost, "/api/auth/verify-reset-code")
	r.Public(http.MethodPost, "/api/auth/reset-password")
	r.POST("/api/auth/forgot-password", end.ForgotPassword, authMws...)
	r.POST("/api/auth/verify-reset-code", end.VerifyResetCode, authMws...)
	r.POST("/api/auth/reset-password", end.ResetPassword, authMws...)

	// Session
	r.Public(http.MethodPost, "/api/auth/signin")
	r.POST("/api/auth/signin", end.SignIn, authMws...)
	if opts.DirectSignup {
		r.Public(http.MethodPost, "/api/auth/signup")
		r.POST("/api/auth/signup", end.SignUp, authMws...)
	}

	// Profile (need authenticated)
	r.GET("/api/user/profile", end.Profile)
	r.PUT("/api/user/profile", end.ProfileUpdate)
	r.PUT("/api/user/avatar", end.ProfileUpdateAvatar)
	r.GET("/api/progress", end.Progress)

	r.Public(http.MethodGet, "/api/health")
	r.GET("/api/health", end.Health)

	if opts.Storage != nil {
		r.Public(http.MethodGet, "/uploads/*key")
		r.Raw(http.MethodGet, "/uploads/*key", &uploadHandler{storage: opts.Storage})
	}
}
