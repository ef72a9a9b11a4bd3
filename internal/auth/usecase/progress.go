package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/productivefire/server/internal/pkg/goerror"
)

type ProgressOutput struct {
	TotalTasks     int
	CompletedTasks int
	DSAProblems    int
	Streak         int
	CompletedToday int
	CompletionRate float64
}

func (s *Usecase) Progress(ctx context.Context) (*ProgressOutput, error) {
	ctx, span := s.startSpan(ctx, "Progress")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repoDB.GetProgress(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Progress not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get progress", "account_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProgressOutput{
		TotalTasks:     p.TotalTasks,
		CompletedTasks: p.CompletedTasks,
		DSAProblems:    p.DSAProblems,
		Streak:         p.Streak,
		CompletedToday: p.CompletedTodayAt(s.clock.Now()),
		CompletionRate: p.CompletionRate(),
	}, nil
}
