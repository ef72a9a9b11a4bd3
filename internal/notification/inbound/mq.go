package inbound

import (
	"context"
	"log/slog"

	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goroutine"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/messaging"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/shared/event"
	"github.com/samber/lo"
)

const defaultConcurrency = 10

type consumer struct {
	name    string // consumer group on every broker
	topic   string // destination where publisher sent message
	handler messaging.Handler
}

// RegisterMQConsumer starts the consumers listed in
// modules.notification.consumer_names. An empty list starts none.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) []string {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	consumers := []consumer{
		{
			name:    event.AccountCreatedConsumerNotification,
			topic:   event.AccountCreatedDestination,
			handler: h.AccountCreatedNotification,
		},
		{
			name:    event.PasswordChangedConsumerNotification,
			topic:   event.PasswordChangedDestination,
			handler: h.PasswordChangedNotification,
		},
	}

	enabled := cfg.GetArray("modules.notification.consumer_names")
	selected := lo.Filter(consumers, func(c consumer, _ int) bool {
		return lo.Contains(enabled, c.name)
	})

	for _, c := range selected {
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
			return messenger.Consume(pCtx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.name),
				messaging.WithConcurrency(concurrency),
			)
		})
	}

	return lo.Map(selected, func(c consumer, _ int) string { return c.name })
}
