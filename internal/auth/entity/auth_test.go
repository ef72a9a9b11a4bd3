package entity

import (
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)

	tests := []struct {
		name      string
		current   int
		lastLogin time.Time
		want      int
	}{
		{name: "same day keeps streak", current: 4, lastLogin: now.Add(-2 * time.Hour), want: 4},
		{name: "yesterday extends streak", current: 4, lastLogin: now.AddDate(0, 0, -1), want: 5},
		{name: "just before midnight yesterday", current: 2, lastLogin: time.Date(2026, 3, 9, 23, 59, 0, 0, loc), want: 3},
		{name: "two days ago resets", current: 9, lastLogin: now.AddDate(0, 0, -2), want: 1},
		{name: "utc instant on previous local day", current: 1, lastLogin: time.Date(2026, 3, 9, 1, 0, 0, 0, time.UTC), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := NextStreak(tt.current, tt.lastLogin, now)

			// Assert
			if got != tt.want {
				t.Fatalf("NextStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVerificationCode_Active(t *testing.T) {
	// Arrange
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code := VerificationCode{IssuedAt: issued, ExpiresAt: issued.Add(CodeTTL)}

	// Act & Assert
	if !code.Active(issued.Add(599 * time.Second)) {
		t.Fatal("code should be active at T+599s")
	}
	if code.Active(issued.Add(CodeTTL)) {
		t.Fatal("code should be expired at T+600s")
	}
	if code.Active(issued.Add(601 * time.Second)) {
		t.Fatal("code should be expired at T+601s")
	}
}

func TestProgress(t *testing.T) {
	now := time.Date(2026, 5, 5, 18, 0, 0, 0, time.UTC)
	today := now.Add(-time.Hour)
	yesterday := now.AddDate(0, 0, -1)

	t.Run("completion rate rounds to one decimal", func(t *testing.T) {
		// Arrange
		p := Progress{TotalTasks: 3, CompletedTasks: 2}

		// Act
		got := p.CompletionRate()

		// Assert
		if got != 66.7 {
			t.Fatalf("CompletionRate = %v", got)
		}
	})

	t.Run("no tasks", func(t *testing.T) {
		if got := (Progress{}).CompletionRate(); got != 0 {
			t.Fatalf("CompletionRate = %v", got)
		}
	})

	t.Run("completed today only counts on the same day", func(t *testing.T) {
		// Arrange
		fresh := Progress{CompletedToday: 3, LastCompletedAt: &today}
		stale := Progress{CompletedToday: 3, LastCompletedAt: &yesterday}

		// Act & Assert
		if got := fresh.CompletedTodayAt(now); got != 3 {
			t.Fatalf("fresh = %d", got)
		}
		if got := stale.CompletedTodayAt(now); got != 0 {
			t.Fatalf("stale = %d", got)
		}
	})
}

func TestPurposeFromString(t *testing.T) {
	tests := map[string]Purpose{
		"signup":          PurposeSignup,
		" PASSWORD_RESET": PurposePasswordReset,
		"forgot-password": PurposePasswordReset,
		"login":           PurposeUnknown,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := PurposeFromString(in); got != want {
				t.Fatalf("PurposeFromString(%q) = %v, want %v", in, got, want)
			}
		})
	}
}
