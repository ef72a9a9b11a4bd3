package inbound

import (
	"errors"

	"github.com/productivefire/server/internal/auth/usecase"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/router"
)

// HTTPEndpoint exposes the email verification, password reset and profile
// handlers.
type HTTPEndpoint struct {
	uc uc
}

// SendSignupCode mails a signup code.
// @Summary Send signup code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Signup email"
// @Success 200 {object} SendSignupCodeResponse
// @Failure 400 {object} router.errorResponse "Validation error or email already registered"
// @Failure 429 {object} router.errorResponse "Too many authentication attempts"
// @Failure 500 {object} router.errorResponse "Failed to send verification email"
// @Router /api/auth/send-signup-otp [post]
func (h *HTTPEndpoint) SendSignupCode(r *router.Request) (any, error) {
	var req EmailRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendSignupCode(r.Context(), usecase.SendSignupCodeInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return SendSignupCodeResponse{Email: resp.Email}, nil
}

// VerifySignup redeems the code and creates the account.
// @Summary Verify signup code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifySignupRequest true "Code and pending account"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} router.errorResponse "Invalid or expired verification code"
// @Router /api/auth/verify-signup [post]
func (h *HTTPEndpoint) VerifySignup(r *router.Request) (any, error) {
	var req VerifySignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifySignup(r.Context(), usecase.VerifySignupInput{
		Email:    req.Email,
		OTP:      req.OTP,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return SessionResponse{User: newUserResponse(resp.User), Token: resp.Token}, nil
}

// ForgotPassword answers the same way whether or not the email is known.
// @Summary Request password reset code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} ForgotPasswordResponse
// @Failure 500 {object} router.errorResponse "Failed to send reset email"
// @Router /api/auth/forgot-password [post]
func (h *HTTPEndpoint) ForgotPassword(r *router.Request) (any, error) {
	var req EmailRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ForgotPassword(r.Context(), usecase.ForgotPasswordInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return ForgotPasswordResponse{}, nil
}

// VerifyResetCode exchanges a reset code for a reset token.
// @Summary Verify reset code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyResetCodeRequest true "Email and code"
// @Success 200 {object} VerifyResetCodeResponse
// @Failure 400 {object} router.errorResponse "Invalid or expired reset code"
// @Router /api/auth/verify-reset-code [post]
func (h *HTTPEndpoint) VerifyResetCode(r *router.Request) (any, error) {
	var req VerifyResetCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyResetCode(r.Context(), usecase.VerifyResetCodeInput{Email: req.Email, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return VerifyResetCodeResponse{ResetToken: resp.ResetToken}, nil
}

// ResetPassword sets a new password with a reset token.
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} ResetPasswordResponse
// @Failure 400 {object} router.errorResponse "Invalid or expired reset token"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/auth/reset-password [post]
func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		ResetToken:  req.ResetToken,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}

// SignIn authenticates with email and password.
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Router /api/auth/signin [post]
func (h *HTTPEndpoint) SignIn(r *router.Request) (any, error) {
	var req SignInRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignIn(r.Context(), usecase.SignInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return SessionResponse{User: newUserResponse(resp.User), Token: resp.Token}, nil
}

func (h *HTTPEndpoint) SignUp(r *router.Request) (any, error) {
	var req SignUpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignUp(r.Context(), usecase.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return CreatedSessionResponse{SessionResponse{User: newUserResponse(resp.User), Token: resp.Token}}, nil
}

// Profile returns the signed in account.
// @Summary Get profile
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} router.errorResponse "Access token required"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/user/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{User: newUserResponse(*resp)}, nil
}

// ProfileUpdate changes name, avatar or settings.
// @Summary Update profile
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileUpdateRequest true "Fields to change"
// @Success 200 {object} ProfileUpdateResponse
// @Failure 400 {object} router.errorResponse "Validation error"
// @Router /api/user/profile [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		Name:     req.Name,
		Avatar:   req.Avatar,
		Settings: req.Settings,
	})
	if err != nil {
		return nil, err
	}

	return ProfileUpdateResponse{User: newUserResponse(*resp)}, nil
}

// ProfileUpdateAvatar uploads a new avatar image.
// @Summary Upload avatar
// @Tags User
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "JPEG, PNG or WebP up to 2MB"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} router.errorResponse "Invalid file"
// @Router /api/user/avatar [put]
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	file, err := r.SingleFile("avatar", usecase.AvatarMaxBytes)
	if errors.Is(err, router.ErrFileTooLarge) {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar must be at most 2MB")
	}
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ProfileUpdateAvatar(r.Context(), usecase.ProfileUpdateAvatarInput{
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		return nil, err
	}

	return ProfileResponse{User: newUserResponse(*resp)}, nil
}

// Progress returns the account's task statistics.
// @Summary Get progress
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProgressResponse
// @Router /api/progress [get]
func (h *HTTPEndpoint) Progress(r *router.Request) (any, error) {
	resp, err := h.uc.Progress(r.Context())
	if err != nil {
		return nil, err
	}

	return ProgressResponse{
		TotalTasks:     resp.TotalTasks,
		CompletedTasks: resp.CompletedTasks,
		DSAProblems:    resp.DSAProblems,
		Streak:         resp.Streak,
		CompletedToday: resp.CompletedToday,
		CompletionRate: resp.CompletionRate,
	}, nil
}

func (h *HTTPEndpoint) Health(r *router.Request) (any, error) {
	resp := h.uc.Health(r.Context())

	return HealthResponse{Status: resp.Status, Timestamp: resp.Timestamp}, nil
}
