package inbound

import (
	"context"
	"time"

	"github.com/productivefire/server/internal/pkg/goroutine"
)

type sweeper interface {
	SweepExpired(ctx context.Context) error
}

// RegisterSweeper deletes expired codes and grants every interval until ctx
// is done.
func RegisterSweeper(ctx context.Context, routine *goroutine.Manager, interval time.Duration, uc sweeper) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	routine.Every(ctx, "auth.sweep_expired", interval, uc.SweepExpired)
}
