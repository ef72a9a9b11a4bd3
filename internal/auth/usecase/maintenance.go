package usecase

import (
	"context"
	"log/slog"
	"time"
)

type HealthOutput struct {
	Status    string
	Timestamp time.Time
}

func (s *Usecase) Health(ctx context.Context) *HealthOutput {
	_, span := s.startSpan(ctx, "Health")
	defer span.End()

	return &HealthOutput{Status: "OK", Timestamp: s.clock.Now()}
}

// SweepExpired deletes expired codes and redeemed grants past expiry.
func (s *Usecase) SweepExpired(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	codes, grants, err := s.repoDB.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sweep expired", "error", err)
		return err
	}

	if codes > 0 || grants > 0 {
		slog.InfoContext(ctx, "expired auth records swept", "codes", codes, "grants", grants)
	}

	return nil
}
