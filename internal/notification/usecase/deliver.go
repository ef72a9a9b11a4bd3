package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/productivefire/server/internal/pkg/idempotency"
	"github.com/sethvargo/go-retry"
)

// once runs send at most once per key. A redelivered event that already
// produced an email is acked without sending again.
func (s *Usecase) once(ctx context.Context, key string, send func(ctx context.Context) error) error {
	err := idempotency.Exec(ctx, s.idem, key, func(ctx context.Context) error {
		return s.withRetry(ctx, send)
	})
	if idempotency.IsDuplicate(err) {
		slog.InfoContext(ctx, "notification already handled", "key", key, "reason", err)
		return nil
	}

	return err
}

// withRetry retries send on a capped Fibonacci backoff. Context errors stop
// the loop immediately.
func (s *Usecase) withRetry(ctx context.Context, send func(ctx context.Context) error) error {
	base := s.cfg.GetDuration("modules.notification.retry.base")
	if base <= 0 {
		base = defaultRetryBase
	}
	ceiling := s.cfg.GetDuration("modules.notification.retry.cap")
	if ceiling <= 0 {
		ceiling = defaultRetryCap
	}
	attempts := s.cfg.GetInt("modules.notification.retry.attempts")
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}

	b := retry.NewFibonacci(base)
	b = retry.WithCappedDuration(ceiling, b)
	b = retry.WithMaxRetries(uint64(attempts-1), b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := send(ctx)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		slog.WarnContext(ctx, "email delivery failed, retrying", "error", err)
		return retry.RetryableError(err)
	})
}
