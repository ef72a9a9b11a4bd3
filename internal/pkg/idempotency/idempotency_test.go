package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
)

func TestExec_Memory(t *testing.T) {
	ctx := context.Background()

	t.Run("RunsOnce", func(t *testing.T) {
		// Arrange
		s := NewMemory(clock.NewFake(time.Now()))
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		// Act
		first := Exec(ctx, s, "evt-1", fn)
		second := Exec(ctx, s, "evt-1", fn)

		// Assert
		if first != nil {
			t.Fatalf("first Exec() error = %v", first)
		}
		if !errors.Is(second, ErrAlreadyCompleted) || !IsDuplicate(second) {
			t.Fatalf("expected ErrAlreadyCompleted, got %v", second)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("FailureAllowsRetry", func(t *testing.T) {
		// Arrange
		s := NewMemory(clock.NewFake(time.Now()))
		boom := errors.New("smtp down")
		calls := 0

		// Act
		err := Exec(ctx, s, "evt-2", func(context.Context) error { calls++; return boom })
		retry := Exec(ctx, s, "evt-2", func(context.Context) error { calls++; return nil })

		// Assert
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if retry != nil || calls != 2 {
			t.Fatalf("expected retry to run, err=%v calls=%d", retry, calls)
		}
	})

	t.Run("CompletedStateExpires", func(t *testing.T) {
		// Arrange
		c := clock.NewFake(time.Now())
		s := NewMemory(c)
		_ = Exec(ctx, s, "evt-3", func(context.Context) error { return nil }, WithStateTTL(time.Hour))

		// Act
		c.Advance(time.Hour + time.Second)
		err := Exec(ctx, s, "evt-3", func(context.Context) error { return nil })

		// Assert
		if err != nil {
			t.Fatalf("expected key to be forgotten, got %v", err)
		}
	})

	t.Run("InProgress", func(t *testing.T) {
		// Arrange
		s := NewMemory(clock.NewFake(time.Now()))
		if _, err := s.Acquire(ctx, "evt-4", time.Minute); err != nil {
			t.Fatal(err)
		}

		// Act
		err := Exec(ctx, s, "evt-4", func(context.Context) error { return nil })

		// Assert
		if !errors.Is(err, ErrAlreadyInProgress) {
			t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
		}
	})
}
