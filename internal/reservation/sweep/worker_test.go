package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fluxori-systems/creditcore/internal/clock"
	"github.com/fluxori-systems/creditcore/internal/config"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	resrepo "github.com/fluxori-systems/creditcore/internal/reservation/repository"
	resservice "github.com/fluxori-systems/creditcore/internal/reservation/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestRunOnceExpiresStaleHolds(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&resdomain.Reservation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	reservations := resservice.New(resservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg: config.Config{
			Credit: config.CreditConfig{ReservationTTL: 5 * time.Minute},
		},
		Clock: fake,
		Repo:  resrepo.Provide(),
	})

	ctx := context.Background()
	stale, err := reservations.Create(ctx, resdomain.CreateRequest{
		OrgID:        node.Generate(),
		AllocationID: node.Generate(),
		Amount:       25,
		UsageType:    "ai_generation",
	})
	require.NoError(t, err)

	fake.Advance(10 * time.Minute)

	worker := NewWorker(Params{
		Log:          zap.NewNop(),
		Reservations: reservations,
	})
	require.NoError(t, worker.RunOnce(ctx))

	got, err := reservations.Get(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, resdomain.StatusExpired, got.Status)

	// Nothing left to sweep on the next run.
	require.NoError(t, worker.RunOnce(ctx))
}
