package db

import (
	"context"
	"testing"

	"github.com/productivefire/server/internal/auth/outbound/storetest"
	"github.com/productivefire/server/internal/pkg/containertest"
	"github.com/productivefire/server/internal/pkg/instrument"
)

func TestDB(t *testing.T) {
	pool := containertest.Postgres(t, "../../../../db/migrations")

	storetest.Run(t, func(t *testing.T) storetest.Store {
		t.Helper()

		_, err := pool.Exec(context.Background(),
			`TRUNCATE auth_used_grants, auth_verification_codes, auth_progress, auth_accounts`)
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}

		return NewDB(pool, instrument.NewNoop())
	})
}
