// Package storetest is the behavior every auth store must share. Each store
// package runs it from its own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/valueobject"
)

type Store interface {
	ReplaceCode(ctx context.Context, code entity.VerificationCode) error
	GetActiveCode(ctx context.Context, email string, p entity.Purpose, now time.Time) (*entity.VerificationCode, error)
	PurgeExpiredCodes(ctx context.Context, email string, p entity.Purpose, now time.Time) (int64, error)
	DeleteCode(ctx context.Context, email string, p entity.Purpose, digest string) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (codes, grants int64, err error)

	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*entity.Account, error)
	GetProgress(ctx context.Context, id int64) (*entity.Progress, error)

	CreateAccount(ctx context.Context, in entity.NewAccount) error
	ResetPassword(ctx context.Context, in entity.PasswordReset) error
	UpdateLogin(ctx context.Context, id int64, at time.Time, streak int) error
	UpdateProfile(ctx context.Context, in entity.ProfileUpdate) error
}

// Run executes the contract against a fresh store from newStore per subtest.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	code := func(email string, p entity.Purpose, digest string, issued time.Time) entity.VerificationCode {
		return entity.VerificationCode{
			Email:     email,
			Purpose:   p,
			Digest:    digest,
			IssuedAt:  issued,
			ExpiresAt: issued.Add(entity.CodeTTL),
		}
	}

	t.Run("ReplaceCodeKeepsOnePerPair", func(t *testing.T) {
		// Arrange
		s := newStore(t)

		// Act
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposeSignup, "d1", now)))
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposeSignup, "d2", now.Add(time.Second))))
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposePasswordReset, "r1", now)))

		// Assert
		got, err := s.GetActiveCode(ctx, "ada@example.com", entity.PurposeSignup, now.Add(time.Minute))
		mustNil(t, err)
		if got.Digest != "d2" {
			t.Fatalf("digest = %q, want d2", got.Digest)
		}
		got, err = s.GetActiveCode(ctx, "ada@example.com", entity.PurposePasswordReset, now.Add(time.Minute))
		mustNil(t, err)
		if got.Digest != "r1" {
			t.Fatalf("reset digest = %q, want r1", got.Digest)
		}
	})

	t.Run("ExpiredCodeIsIgnoredAndPurged", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposeSignup, "d1", now)))
		at := now.Add(entity.CodeTTL)

		// Act
		_, err := s.GetActiveCode(ctx, "ada@example.com", entity.PurposeSignup, at)
		n, pErr := s.PurgeExpiredCodes(ctx, "ada@example.com", entity.PurposeSignup, at)

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("GetActiveCode() error = %v, want ErrNotFound", err)
		}
		mustNil(t, pErr)
		if n != 1 {
			t.Fatalf("purged = %d, want 1", n)
		}
	})

	t.Run("DeleteCodeOnlyMatchingDigest", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposeSignup, "d1", now)))

		// Act
		stale, err1 := s.DeleteCode(ctx, "ada@example.com", entity.PurposeSignup, "other")
		ok, err2 := s.DeleteCode(ctx, "ada@example.com", entity.PurposeSignup, "d1")
		again, err3 := s.DeleteCode(ctx, "ada@example.com", entity.PurposeSignup, "d1")

		// Assert
		mustNil(t, errors.Join(err1, err2, err3))
		if stale || !ok || again {
			t.Fatalf("deletes = %v %v %v, want false true false", stale, ok, again)
		}
	})

	t.Run("CreateAccountConsumesCode", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposeSignup, "d1", now)))
		in := newAccount(101, "ada@example.com", "d1", now)

		// Act
		err := s.CreateAccount(ctx, in)

		// Assert
		mustNil(t, err)
		acc, err := s.GetAccountByEmail(ctx, "ada@example.com")
		mustNil(t, err)
		if acc.ID != 101 || !acc.EmailVerified || acc.Streak != entity.DefaultStreak || acc.Name != "Ada" {
			t.Fatalf("unexpected account: %+v", acc)
		}
		if !acc.Settings.GetBool(entity.SettingSoundEnabled, false) {
			t.Fatalf("settings = %v, want defaults", acc.Settings)
		}
		p, err := s.GetProgress(ctx, 101)
		mustNil(t, err)
		if p.TotalTasks != 0 || p.CompletedTasks != 0 || p.Streak != entity.DefaultStreak {
			t.Fatalf("unexpected progress: %+v", p)
		}
		if _, err := s.GetActiveCode(ctx, "ada@example.com", entity.PurposeSignup, now); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("code still active: %v", err)
		}
	})

	t.Run("CreateAccountWithoutCode", func(t *testing.T) {
		// Arrange
		s := newStore(t)

		// Act
		err := s.CreateAccount(ctx, newAccount(102, "ada@example.com", "d1", now))

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("CreateAccount() error = %v, want ErrNotFound", err)
		}
		if _, err := s.GetAccountByEmail(ctx, "ada@example.com"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("account created without code: %v", err)
		}
	})

	t.Run("CreateAccountDuplicateEmail", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.CreateAccount(ctx, newAccount(103, "ada@example.com", "", now)))

		// Act
		err := s.CreateAccount(ctx, newAccount(104, "ada@example.com", "", now))

		// Assert
		if !errors.Is(err, goerror.ErrConflict) {
			t.Fatalf("CreateAccount() error = %v, want ErrConflict", err)
		}
	})

	t.Run("ResetPasswordSingleUse", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.CreateAccount(ctx, newAccount(105, "ada@example.com", "", now)))
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposePasswordReset, "r1", now)))
		in := entity.PasswordReset{
			GrantID:        "jti-1",
			GrantExpiresAt: now.Add(15 * time.Minute),
			Email:          "ada@example.com",
			PasswordHash:   "new-hash",
			Now:            now,
		}

		// Act
		first := s.ResetPassword(ctx, in)
		second := s.ResetPassword(ctx, in)

		// Assert
		mustNil(t, first)
		if !errors.Is(second, goerror.ErrConflict) {
			t.Fatalf("second ResetPassword() error = %v, want ErrConflict", second)
		}
		acc, err := s.GetAccountByID(ctx, 105)
		mustNil(t, err)
		if acc.PasswordHash != "new-hash" {
			t.Fatalf("hash = %q, want new-hash", acc.PasswordHash)
		}
		if _, err := s.GetActiveCode(ctx, "ada@example.com", entity.PurposePasswordReset, now); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("reset code survived: %v", err)
		}
	})

	t.Run("ResetPasswordUnknownAccount", func(t *testing.T) {
		// Arrange
		s := newStore(t)

		// Act
		err := s.ResetPassword(ctx, entity.PasswordReset{
			GrantID:        "jti-2",
			GrantExpiresAt: now.Add(time.Minute),
			Email:          "ghost@example.com",
			PasswordHash:   "x",
			Now:            now,
		})

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("ResetPassword() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateLoginAndProfile", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.CreateAccount(ctx, newAccount(106, "ada@example.com", "", now)))
		later := now.Add(24 * time.Hour)
		name, avatar := "Ada L.", "/uploads/avatars/106/a.png"

		// Act
		mustNil(t, s.UpdateLogin(ctx, 106, later, 2))
		mustNil(t, s.UpdateProfile(ctx, entity.ProfileUpdate{
			ID:        106,
			Name:      &name,
			Avatar:    &avatar,
			Settings:  valueobject.JSONMap{entity.SettingSoundEnabled: false, entity.SettingNotificationsEnabled: true},
			UpdatedAt: later,
		}))

		// Assert
		acc, err := s.GetAccountByID(ctx, 106)
		mustNil(t, err)
		if acc.Streak != 2 || !acc.LastLogin.Equal(later) || acc.Name != name {
			t.Fatalf("unexpected account: %+v", acc)
		}
		if acc.Avatar == nil || *acc.Avatar != avatar {
			t.Fatalf("avatar = %v, want %q", acc.Avatar, avatar)
		}
		if acc.Settings.GetBool(entity.SettingSoundEnabled, true) {
			t.Fatalf("settings = %v, want sound disabled", acc.Settings)
		}
		p, err := s.GetProgress(ctx, 106)
		mustNil(t, err)
		if p.Streak != 2 {
			t.Fatalf("progress streak = %d, want 2", p.Streak)
		}

		empty := ""
		mustNil(t, s.UpdateProfile(ctx, entity.ProfileUpdate{ID: 106, Avatar: &empty, UpdatedAt: later}))
		acc, err = s.GetAccountByID(ctx, 106)
		mustNil(t, err)
		if acc.Avatar != nil || acc.Name != name {
			t.Fatalf("avatar not cleared or name lost: %+v", acc)
		}
	})

	t.Run("UpdateMissingAccount", func(t *testing.T) {
		// Arrange
		s := newStore(t)

		// Act
		loginErr := s.UpdateLogin(ctx, 999, now, 1)
		profileErr := s.UpdateProfile(ctx, entity.ProfileUpdate{ID: 999, UpdatedAt: now})

		// Assert
		if !errors.Is(loginErr, goerror.ErrNotFound) || !errors.Is(profileErr, goerror.ErrNotFound) {
			t.Fatalf("errors = %v / %v, want ErrNotFound", loginErr, profileErr)
		}
	})

	t.Run("SweepExpired", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.ReplaceCode(ctx, code("old@example.com", entity.PurposeSignup, "d1", now)))
		mustNil(t, s.ReplaceCode(ctx, code("new@example.com", entity.PurposeSignup, "d2", now.Add(20*time.Minute))))
		mustNil(t, s.CreateAccount(ctx, newAccount(107, "ada@example.com", "", now)))
		mustNil(t, s.ResetPassword(ctx, entity.PasswordReset{
			GrantID: "jti-3", GrantExpiresAt: now.Add(15 * time.Minute),
			Email: "ada@example.com", PasswordHash: "h", Now: now,
		}))

		// Act
		codes, grants, err := s.SweepExpired(ctx, now.Add(25*time.Minute))

		// Assert
		mustNil(t, err)
		if codes != 1 || grants != 1 {
			t.Fatalf("swept = %d codes, %d grants, want 1 and 1", codes, grants)
		}
		if _, err := s.GetActiveCode(ctx, "new@example.com", entity.PurposeSignup, now.Add(25*time.Minute)); err != nil {
			t.Fatalf("live code swept: %v", err)
		}
	})

	t.Run("ResetPasswordClearsEveryCodeOfEmail", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		mustNil(t, s.CreateAccount(ctx, newAccount(106, "ada@example.com", "", now)))
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposeSignup, "d1", now)))
		mustNil(t, s.ReplaceCode(ctx, code("ada@example.com", entity.PurposePasswordReset, "r1", now)))
		mustNil(t, s.ReplaceCode(ctx, code("grace@example.com", entity.PurposeSignup, "g1", now)))

		// Act
		err := s.ResetPassword(ctx, entity.PasswordReset{
			GrantID:        "jti-clear",
			GrantExpiresAt: now.Add(15 * time.Minute),
			Email:          "ada@example.com",
			PasswordHash:   "new-hash",
			Now:            now,
		})

		// Assert
		mustNil(t, err)
		for _, p := range []entity.Purpose{entity.PurposeSignup, entity.PurposePasswordReset} {
			if _, err := s.GetActiveCode(ctx, "ada@example.com", p, now); !errors.Is(err, goerror.ErrNotFound) {
				t.Fatalf("%s code survived: %v", p, err)
			}
		}
		if _, err := s.GetActiveCode(ctx, "grace@example.com", entity.PurposeSignup, now); err != nil {
			t.Fatalf("other email's code removed: %v", err)
		}
	})
}

func newAccount(id int64, email, digest string, now time.Time) entity.NewAccount {
	return entity.NewAccount{
		ID:           id,
		Name:         "Ada",
		Email:        email,
		PasswordHash: "hash",
		Settings:     entity.DefaultSettings(),
		Now:          now,
		CodeDigest:   digest,
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
