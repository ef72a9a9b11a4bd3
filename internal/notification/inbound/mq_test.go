package inbound

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/productivefire/server/internal/notification/usecase"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goroutine"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/messaging"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/shared/event"
)

type stubUC struct {
	mu      sync.Mutex
	created []usecase.ConsumeAccountCreatedInput
	changed []usecase.ConsumePasswordChangedInput
	cIDs    []string
}

func (s *stubUC) ConsumeAccountCreated(ctx context.Context, in usecase.ConsumeAccountCreatedInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, in)
	s.cIDs = append(s.cIDs, instrument.GetCorrelationID(ctx))
	return nil
}

func (s *stubUC) ConsumePasswordChanged(ctx context.Context, in usecase.ConsumePasswordChangedInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changed = append(s.changed, in)
	s.cIDs = append(s.cIDs, instrument.GetCorrelationID(ctx))
	return nil
}

func (s *stubUC) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.created), len(s.changed)
}

func newConfig(t *testing.T, names string) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    consumer_names: \""+names+"\"\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegisterMQConsumer(t *testing.T) {
	t.Run("OnlyEnabledConsumersStart", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		broker := messaging.NewMemory()
		defer broker.Close()
		routine := goroutine.NewManager(4)

		// Act
		started := RegisterMQConsumer(ctx, newConfig(t, event.PasswordChangedConsumerNotification),
			routine, broker, uid.NewUUID(), &stubUC{}, instrument.NewNoop())

		// Assert
		if len(started) != 1 || started[0] != event.PasswordChangedConsumerNotification {
			t.Fatalf("started = %v", started)
		}
		waitFor(t, func() bool { return broker.Subscribed(event.PasswordChangedDestination) == 1 })
		if n := broker.Subscribed(event.AccountCreatedDestination); n != 0 {
			t.Fatalf("account created subscribers = %d, want 0", n)
		}

		cancel()
		if err := routine.Wait(); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	})

	t.Run("DeliversDecodedEvents", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		broker := messaging.NewMemory()
		defer broker.Close()
		routine := goroutine.NewManager(4)
		uc := &stubUC{}
		names := event.AccountCreatedConsumerNotification + "," + event.PasswordChangedConsumerNotification
		RegisterMQConsumer(ctx, newConfig(t, names), routine, broker, uid.NewUUID(), uc, instrument.NewNoop())
		waitFor(t, func() bool {
			return broker.Subscribed(event.AccountCreatedDestination) == 1 &&
				broker.Subscribed(event.PasswordChangedDestination) == 1
		})

		created, _ := json.Marshal(event.AccountCreatedMessage{
			EventID:   "evt-1",
			AccountID: 1898237461234,
			Email:     "ada@example.com",
			Name:      "Ada",
		})
		changed, _ := json.Marshal(event.PasswordChangedMessage{
			EventID:   "evt-2",
			AccountID: 1898237461234,
			Email:     "ada@example.com",
		})

		// Act
		err1 := broker.Publish(ctx, event.AccountCreatedDestination, messaging.Outgoing{
			Body:    created,
			Headers: map[string]string{event.HeaderCorrelationID: "corr-1"},
		})
		err2 := broker.Publish(ctx, event.PasswordChangedDestination, messaging.Outgoing{Body: changed})

		// Assert
		if err1 != nil || err2 != nil {
			t.Fatalf("Publish() errors = %v, %v", err1, err2)
		}
		waitFor(t, func() bool {
			c, p := uc.counts()
			return c == 1 && p == 1
		})

		uc.mu.Lock()
		defer uc.mu.Unlock()
		if got := uc.created[0]; got.AccountID != 1898237461234 || got.Name != "Ada" || got.EventID != "evt-1" {
			t.Errorf("created = %+v", got)
		}
		for _, cID := range uc.cIDs {
			if cID == "" {
				t.Error("correlation id was not set")
			}
		}
	})

	t.Run("MalformedBodyIsAcked", func(t *testing.T) {
		// Arrange
		h := &MQHandler{uc: &stubUC{}, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		// Act
		err := h.AccountCreatedNotification(context.Background(), &messaging.Message{Body: []byte("{")})

		// Assert
		if err != nil {
			t.Fatalf("AccountCreatedNotification() error = %v, want nil", err)
		}
	})
}
