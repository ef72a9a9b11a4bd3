package entity

import "strings"

// Purpose scopes a verification code. A code issued for one purpose never
// verifies for another.
type Purpose int16

const (
	// PurposeUnknown is the zero value and never stored.
	PurposeUnknown Purpose = 0

	// PurposeSignup gates account creation.
	PurposeSignup Purpose = 1

	// PurposePasswordReset gates credential recovery.
	PurposePasswordReset Purpose = 2
)

func (p Purpose) String() string {
	switch p {
	case PurposeSignup:
		return "signup"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

func (p Purpose) IsValid() bool {
	return p == PurposeSignup || p == PurposePasswordReset
}

func PurposeFromString(s string) Purpose {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signup":
		return PurposeSignup
	case "password_reset", "forgot-password", "reset":
		return PurposePasswordReset
	default:
		return PurposeUnknown
	}
}
