package clock

import (
	"testing"
	"time"
)

func TestFake_Advance(t *testing.T) {
	t.Run("MovesNow", func(t *testing.T) {
		// Arrange
		start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		c := NewFake(start)

		// Act
		c.Advance(90 * time.Second)

		// Assert
		if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
			t.Fatalf("unexpected now: %v", got)
		}
	})

	t.Run("FiresTicker", func(t *testing.T) {
		// Arrange
		c := NewFake(time.Unix(0, 0))
		tk := c.NewTicker(time.Second)
		defer tk.Stop()

		// Act
		c.Advance(500 * time.Millisecond)
		select {
		case <-tk.C():
			t.Fatal("ticker fired before its period")
		default:
		}
		c.Advance(500 * time.Millisecond)

		// Assert
		select {
		case <-tk.C():
		default:
			t.Fatal("expected a tick after one period")
		}
	})

	t.Run("StoppedTickerIsSilent", func(t *testing.T) {
		// Arrange
		c := NewFake(time.Unix(0, 0))
		tk := c.NewTicker(time.Second)
		tk.Stop()

		// Act
		c.Advance(5 * time.Second)

		// Assert
		select {
		case <-tk.C():
			t.Fatal("stopped ticker fired")
		default:
		}
	})
}

func TestSameDay(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{"Same", time.Date(2025, 3, 1, 1, 0, 0, 0, loc), time.Date(2025, 3, 1, 23, 0, 0, 0, loc), true},
		{"NextDay", time.Date(2025, 3, 1, 23, 0, 0, 0, loc), time.Date(2025, 3, 2, 0, 0, 0, 0, loc), false},
		{"OtherZone", time.Date(2025, 3, 1, 6, 0, 0, 0, loc), time.Date(2025, 2, 28, 23, 30, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Fatalf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}
