package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
)

func TestMemory_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("BlocksAfterLimit", func(t *testing.T) {
		// Arrange
		c := clock.NewFake(time.Now())
		l, _ := NewMemory(Rule{Name: "auth", Limit: 3, Window: 15 * time.Minute}, c)

		// Act
		var last Result
		for range 3 {
			last, _ = l.Allow(ctx, "10.0.0.1")
		}
		blocked, _ := l.Allow(ctx, "10.0.0.1")

		// Assert
		if !last.Allowed || last.Remaining != 0 {
			t.Fatalf("third request should be allowed with 0 remaining: %+v", last)
		}
		if blocked.Allowed {
			t.Fatal("fourth request should be blocked")
		}
		if blocked.RetryAfter != 15*time.Minute {
			t.Fatalf("unexpected retry after: %v", blocked.RetryAfter)
		}
		if a, r := l.Stats(); a != 3 || r != 1 {
			t.Fatalf("unexpected stats: allowed=%d rejected=%d", a, r)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		// Arrange
		l, _ := NewMemory(Rule{Name: "auth", Limit: 1, Window: time.Minute}, clock.NewFake(time.Now()))
		_, _ = l.Allow(ctx, "a")

		// Act
		res, _ := l.Allow(ctx, "b")

		// Assert
		if !res.Allowed {
			t.Fatal("other key must not share the budget")
		}
	})

	t.Run("WindowResets", func(t *testing.T) {
		// Arrange
		c := clock.NewFake(time.Now())
		l, _ := NewMemory(Rule{Name: "auth", Limit: 1, Window: time.Minute}, c)
		_, _ = l.Allow(ctx, "a")
		mid, _ := l.Allow(ctx, "a")

		// Act
		c.Advance(time.Minute)
		res, _ := l.Allow(ctx, "a")

		// Assert
		if mid.Allowed || mid.RetryAfter != time.Minute {
			t.Fatalf("unexpected mid-window result: %+v", mid)
		}
		if !res.Allowed {
			t.Fatal("expected a fresh window")
		}
	})

	t.Run("Sweep", func(t *testing.T) {
		// Arrange
		c := clock.NewFake(time.Now())
		l, _ := NewMemory(Rule{Name: "auth", Limit: 1, Window: time.Minute}, c)
		_, _ = l.Allow(ctx, "a")
		_, _ = l.Allow(ctx, "b")

		// Act
		c.Advance(2 * time.Minute)
		n, _ := l.Sweep(ctx)

		// Assert
		if n != 2 {
			t.Fatalf("expected 2 windows swept, got %d", n)
		}
	})
}

func TestNewMemory_InvalidRule(t *testing.T) {
	if _, err := NewMemory(Rule{Name: "bad"}, clock.New()); err == nil {
		t.Fatal("expected error for empty rule")
	}
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]string{"": "memory", "Redis": "redis", "memory": "memory"} {
		if got, err := ParseDriver(in); err != nil || got != want {
			t.Fatalf("ParseDriver(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDriver("etcd"); err == nil {
		t.Fatal("expected error for etcd")
	}
}
