package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/samber/lo"
)

func TestUsecase_Profile(t *testing.T) {
	t.Run("RequiresAuth", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.Profile(context.Background())

		// Assert
		assertCode(t, err, goerror.CodeUnauthorized, "")
	})

	t.Run("MissingAccount", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.Profile(f.authCtx(404))

		// Assert
		assertCode(t, err, goerror.CodeNotFound, "User not found")
	})
}

func TestUsecase_ProfileUpdate(t *testing.T) {
	t.Run("MergesSettingsAndClearsAvatar", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		out := f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		ctx := f.authCtx(out.User.ID)
		_, err := f.uc.ProfileUpdate(ctx, ProfileUpdateInput{Avatar: lo.ToPtr("/uploads/avatars/x.png")})
		if err != nil {
			t.Fatalf("ProfileUpdate() error = %v", err)
		}

		// Act
		u, err := f.uc.ProfileUpdate(ctx, ProfileUpdateInput{
			Name:     lo.ToPtr("  Ada Lovelace "),
			Avatar:   lo.ToPtr(""),
			Settings: map[string]any{entity.SettingSoundEnabled: false},
		})

		// Assert
		if err != nil {
			t.Fatalf("ProfileUpdate() error = %v", err)
		}
		if u.Name != "Ada Lovelace" || u.Avatar != nil {
			t.Fatalf("unexpected user: %+v", u)
		}
		if u.Settings[entity.SettingSoundEnabled] != false || u.Settings[entity.SettingNotificationsEnabled] != true {
			t.Fatalf("settings = %v", u.Settings)
		}
	})

	t.Run("ShortName", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		out := f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")

		// Act
		_, err := f.uc.ProfileUpdate(f.authCtx(out.User.ID), ProfileUpdateInput{Name: lo.ToPtr("A")})

		// Assert
		assertCode(t, err, goerror.CodeInvalidInput, "")
	})
}

func TestUsecase_ProfileUpdateAvatar(t *testing.T) {
	t.Run("StoresAndReplaces", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		out := f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")
		ctx := f.authCtx(out.User.ID)
		img := []byte("\x89PNG\r\n\x1a\n....")

		// Act
		first, err1 := f.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{ContentType: "image/png", Data: img})
		second, err2 := f.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{ContentType: "image/png", Data: img})

		// Assert
		if err1 != nil || err2 != nil {
			t.Fatalf("ProfileUpdateAvatar() errors = %v, %v", err1, err2)
		}
		if first.Avatar == nil || !strings.HasPrefix(*first.Avatar, "/uploads/avatars/") || !strings.HasSuffix(*first.Avatar, ".png") {
			t.Fatalf("avatar = %v", first.Avatar)
		}
		if *second.Avatar == *first.Avatar {
			t.Fatal("avatar key reused")
		}
		if f.storage.Len() != 1 {
			t.Fatalf("stored objects = %d, want 1", f.storage.Len())
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		tests := []struct {
			name string
			in   ProfileUpdateAvatarInput
		}{
			{name: "UnsupportedType", in: ProfileUpdateAvatarInput{ContentType: "image/gif", Data: []byte("GIF89a")}},
			{name: "TooLarge", in: ProfileUpdateAvatarInput{ContentType: "image/jpeg", Data: bytes.Repeat([]byte{1}, AvatarMaxBytes+1)}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Arrange
				f := newFixture(t)
				out := f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")

				// Act
				_, err := f.uc.ProfileUpdateAvatar(f.authCtx(out.User.ID), tt.in)

				// Assert
				assertCode(t, err, goerror.CodeInvalidInput, "")
				if f.storage.Len() != 0 {
					t.Fatal("rejected avatar stored")
				}
			})
		}
	})
}

func TestUsecase_Progress(t *testing.T) {
	// Arrange
	f := newFixture(t)
	out := f.signup(t, "ada@example.com", "Ada", "Str0ng!Pass")

	// Act
	p, err := f.uc.Progress(f.authCtx(out.User.ID))

	// Assert
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.TotalTasks != 0 || p.CompletionRate != 0 || p.Streak != 1 || p.CompletedToday != 0 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestUsecase_SweepExpired(t *testing.T) {
	// Arrange
	f := newFixture(t)
	_, _ = f.uc.SendSignupCode(context.Background(), SendSignupCodeInput{Email: "ada@example.com"})
	f.clock.Advance(entity.CodeTTL)

	// Act
	err := f.uc.SweepExpired(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if f.store.CodeCount() != 0 {
		t.Fatalf("codes = %d, want 0", f.store.CodeCount())
	}
}
