package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
	usagelogrepo "github.com/fluxori-systems/creditcore/internal/usagelog/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (usagelogdomain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usagelogdomain.UsageLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  usagelogrepo.Provide(),
	})
	return svc, node
}

func TestAppendComputesTotalTokens(t *testing.T) {
	svc, node := newTestService(t)

	row, err := svc.Append(context.Background(), usagelogdomain.AppendRequest{
		OrgID:        node.Generate(),
		UsageType:    "ai_generation",
		ModelID:      "gpt-4",
		InputTokens:  100,
		OutputTokens: 20,
		CreditsUsed:  5,
		Success:      true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(120), row.TotalTokens)
	require.NotZero(t, row.ID)
}

func TestAppendValidation(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, usagelogdomain.AppendRequest{UsageType: "ai_generation"})
	require.ErrorIs(t, err, usagelogdomain.ErrInvalidOrganization)

	_, err = svc.Append(ctx, usagelogdomain.AppendRequest{OrgID: node.Generate()})
	require.ErrorIs(t, err, usagelogdomain.ErrInvalidUsageType)
}

func TestStatisticsAggregatesWindow(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()

	for i, ok := range []bool{true, true, false} {
		_, err := svc.Append(ctx, usagelogdomain.AppendRequest{
			OrgID:            orgID,
			UsageType:        "ai_generation",
			ModelID:          "gpt-4",
			InputTokens:      100,
			OutputTokens:     50,
			CreditsUsed:      int64(10 + i),
			ProcessingTimeMs: 100,
			Success:          ok,
		})
		require.NoError(t, err)
	}

	now := time.Now().UTC()
	stats, err := svc.Statistics(ctx, orgID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalRequests)
	require.Equal(t, int64(2), stats.SuccessfulRequests)
	require.Equal(t, int64(33), stats.TotalCreditsUsed)
	require.Equal(t, int64(450), stats.TotalTokens)
	require.Equal(t, float64(100), stats.AvgProcessingTimeMs)

	// A window in the past sees nothing.
	stats, err = svc.Statistics(ctx, orgID, now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Zero(t, stats.TotalRequests)

	_, err = svc.Statistics(ctx, orgID, now, now)
	require.ErrorIs(t, err, usagelogdomain.ErrInvalidWindow)
}
