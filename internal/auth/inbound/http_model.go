package inbound

import (
	"net/http"
	"time"

	"github.com/productivefire/server/internal/auth/usecase"
)

type UserResponse struct {
	ID            int64          `json:"id,string"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"emailVerified"`
	Avatar        *string        `json:"avatar"`
	Settings      map[string]any `json:"settings"`
	Streak        int            `json:"streak"`
	JoinDate      time.Time      `json:"joinDate"`
	LastLogin     time.Time      `json:"lastLogin"`
}

func newUserResponse(u usecase.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Avatar:        u.Avatar,
		Settings:      u.Settings,
		Streak:        u.Streak,
		JoinDate:      u.JoinDate,
		LastLogin:     u.LastLogin,
	}
}

type EmailRequest struct {
	Email string `json:"email"`
}

type SendSignupCodeResponse struct {
	Email string `json:"email"`
}

func (SendSignupCodeResponse) Message() string {
	return "Verification code sent to your email"
}

type VerifySignupRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type CreatedSessionResponse struct {
	SessionResponse
}

func (CreatedSessionResponse) StatusCode() int {
	return http.StatusCreated
}

func (CreatedSessionResponse) Message() string {
	return "Account created successfully"
}

type ForgotPasswordResponse struct{}

func (ForgotPasswordResponse) Message() string {
	return "If an account with this email exists, you will receive a reset code."
}

type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyResetCodeResponse struct {
	ResetToken string `json:"resetToken"`
}

func (VerifyResetCodeResponse) Message() string {
	return "Reset code verified successfully"
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string {
	return "Password reset successfully! You can now sign in with your new password."
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileResponse struct {
	User UserResponse `json:"user"`
}

type ProfileUpdateRequest struct {
	Name     *string        `json:"name"`
	Avatar   *string        `json:"avatar"`
	Settings map[string]any `json:"settings"`
}

type ProfileUpdateResponse struct {
	User UserResponse `json:"user"`
}

func (ProfileUpdateResponse) Message() string {
	return "Profile updated successfully"
}

type ProgressResponse struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	DSAProblems    int     `json:"dsaProblems"`
	Streak         int     `json:"streak"`
	CompletedToday int     `json:"completedToday"`
	CompletionRate float64 `json:"completionRate"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
