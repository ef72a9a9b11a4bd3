package inbound

import (
	"context"

	"github.com/productivefire/server/internal/notification/usecase"
)

type uc interface {
	ConsumeAccountCreated(ctx context.Context, in usecase.ConsumeAccountCreatedInput) error
	ConsumePasswordChanged(ctx context.Context, in usecase.ConsumePasswordChangedInput) error
}
