package entity

import (
	"time"

	"github.com/productivefire/server/internal/pkg/valueobject"
)

const (
	// CodeTTL is how long an issued code stays valid.
	CodeTTL = 10 * time.Minute

	// DefaultStreak is the streak of a fresh account and of a broken run.
	DefaultStreak = 1

	SettingSoundEnabled         = "soundEnabled"
	SettingNotificationsEnabled = "notificationsEnabled"
)

// VerificationCode is the stored form of an issued code. Only the digest is
// kept; the clear code lives in the email and the issuing request.
type VerificationCode struct {
	Email     string
	Purpose   Purpose
	Digest    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Active reports whether the code can still be redeemed at now. The boundary
// instant itself counts as expired.
func (c VerificationCode) Active(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

type Account struct {
	ID            int64
	Name          string
	Email         string
	PasswordHash  string
	EmailVerified bool
	Avatar        *string
	Settings      valueobject.JSONMap
	Streak        int
	JoinDate      time.Time
	LastLogin     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Progress struct {
	AccountID       int64
	TotalTasks      int
	CompletedTasks  int
	DSAProblems     int
	Streak          int
	CompletedToday  int
	LastCompletedAt *time.Time
	UpdatedAt       time.Time
}

// CompletedTodayAt returns CompletedToday only when the last completion falls
// on the same calendar day as now.
func (p Progress) CompletedTodayAt(now time.Time) int {
	if p.LastCompletedAt == nil {
		return 0
	}
	y1, m1, d1 := p.LastCompletedAt.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return 0
	}
	return p.CompletedToday
}

// CompletionRate is completed/total as a percentage rounded to one decimal.
func (p Progress) CompletionRate() float64 {
	if p.TotalTasks <= 0 {
		return 0
	}
	rate := float64(p.CompletedTasks) / float64(p.TotalTasks) * 100

	return float64(int64(rate*10+0.5)) / 10
}

// DefaultSettings is the settings map of a new account.
func DefaultSettings() valueobject.JSONMap {
	return valueobject.JSONMap{
		SettingSoundEnabled:         true,
		SettingNotificationsEnabled: true,
	}
}

// ---- //

// NewAccount materializes a verified account. When CodeDigest is set the
// store must consume that signup code in the same transaction.
type NewAccount struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Settings     valueobject.JSONMap
	Now          time.Time
	CodeDigest   string
}

// PasswordReset redeems a ResetGrant. GrantID is recorded so the grant can
// only be redeemed once.
type PasswordReset struct {
	GrantID        string
	GrantExpiresAt time.Time
	Email          string
	PasswordHash   string
	Now            time.Time
}

type ProfileUpdate struct {
	ID        int64
	Name      *string
	Avatar    *string
	Settings  valueobject.JSONMap
	UpdatedAt time.Time
}

// NextStreak applies the login streak rule: same day keeps it, the next day
// extends it, anything else restarts at DefaultStreak.
func NextStreak(current int, lastLogin, now time.Time) int {
	last := lastLogin.In(now.Location())
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return max(current, DefaultStreak)
	}

	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if ly == yy && lm == ym && ld == yd {
		return current + 1
	}

	return DefaultStreak
}
