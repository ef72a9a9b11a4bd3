package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_Go(t *testing.T) {
	t.Run("CollectsErrors", func(t *testing.T) {
		// Arrange
		g := NewManager(2)
		boom := errors.New("boom")

		// Act
		g.Go(context.Background(), func(context.Context) error { return boom })
		g.Go(context.Background(), func(context.Context) error { return nil })
		err := g.Wait()

		// Assert
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		// Arrange
		g := NewManager(1)

		// Act
		g.Go(context.Background(), func(context.Context) error { panic("kaboom") })
		err := g.Wait()

		// Assert
		if !errors.Is(err, ErrPanic) {
			t.Fatalf("expected ErrPanic, got %v", err)
		}
	})

	t.Run("RejectsAfterWait", func(t *testing.T) {
		// Arrange
		g := NewManager(1)
		_ = g.Wait()

		// Act
		ok := g.Go(context.Background(), func(context.Context) error { return nil })

		// Assert
		if ok {
			t.Fatal("expected closed manager to reject work")
		}
	})

	t.Run("RespectsLimit", func(t *testing.T) {
		// Arrange
		g := NewManager(1)
		release := make(chan struct{})
		g.Go(context.Background(), func(context.Context) error { <-release; return nil })

		// Act
		ok := g.Go(context.Background(), func(context.Context) error { return nil })
		close(release)
		_ = g.Wait()

		// Assert
		if ok {
			t.Fatal("expected second task to be rejected at the limit")
		}
	})
}

func TestManager_Every(t *testing.T) {
	// Arrange
	g := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	// Act
	g.Every(ctx, "sweep", 5*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 3 {
			cancel()
		}
		return errors.New("logged, not fatal")
	})
	err := g.Wait()

	// Assert
	if err != nil {
		t.Fatalf("Every must not surface task errors, got %v", err)
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
}
