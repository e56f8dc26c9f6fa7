package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	allocdomain "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	allocrepo "github.com/fluxori-systems/creditcore/internal/allocation/repository"
	allocservice "github.com/fluxori-systems/creditcore/internal/allocation/service"
	"github.com/fluxori-systems/creditcore/internal/clock"
	"github.com/fluxori-systems/creditcore/internal/config"
	creditdomain "github.com/fluxori-systems/creditcore/internal/creditsystem/domain"
	"github.com/fluxori-systems/creditcore/internal/featuregate"
	"github.com/fluxori-systems/creditcore/internal/modelcatalog"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	pricingrepo "github.com/fluxori-systems/creditcore/internal/pricing/repository"
	pricingservice "github.com/fluxori-systems/creditcore/internal/pricing/service"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	resrepo "github.com/fluxori-systems/creditcore/internal/reservation/repository"
	resservice "github.com/fluxori-systems/creditcore/internal/reservation/service"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	txrepo "github.com/fluxori-systems/creditcore/internal/transaction/repository"
	txservice "github.com/fluxori-systems/creditcore/internal/transaction/service"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
	usagelogrepo "github.com/fluxori-systems/creditcore/internal/usagelog/repository"
	usagelogservice "github.com/fluxori-systems/creditcore/internal/usagelog/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testHarness struct {
	svc          creditdomain.Service
	db           *gorm.DB
	node         *snowflake.Node
	clock        *clock.FakeClock
	allocations  allocdomain.Service
	reservations resdomain.Service
}

func newTestHarness(t *testing.T, cfg config.Config) *testHarness {
	t.Helper()

	if cfg.Credit.ReservationTTL == 0 {
		cfg.Credit.ReservationTTL = 5 * time.Minute
	}
	if cfg.Credit.CreditsPerDollar == 0 {
		cfg.Credit.CreditsPerDollar = 1000
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&allocdomain.Allocation{},
		&resdomain.Reservation{},
		&txdomain.Transaction{},
		&usagelogdomain.UsageLog{},
		&pricingdomain.PricingTier{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	allocations := allocservice.New(allocservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   allocrepo.Provide(),
		TxRepo: txrepo.Provide(),
	})
	reservations := resservice.New(resservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Cfg:   cfg,
		Clock: fake,
		Repo:  resrepo.Provide(),
	})
	transactions := txservice.New(txservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  txrepo.Provide(),
	})
	usageLogs := usagelogservice.New(usagelogservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  usagelogrepo.Provide(),
	})

	fallback := &config.FallbackPricingHolder{}
	fallback.Store(config.DefaultFallbackPricing())
	catalog := pricingservice.NewCatalog(pricingservice.CatalogParams{
		DB:       db,
		Log:      log,
		Repo:     pricingrepo.Provide(),
		Fallback: fallback,
	})
	estimator := pricingservice.NewEstimator(pricingservice.EstimatorParams{
		Log:     log,
		Cfg:     cfg,
		Catalog: catalog,
	})

	svc := New(Params{
		Log:          log,
		Gate:         featuregate.New(cfg),
		Models:       modelcatalog.New(),
		Pricing:      catalog,
		Estimator:    estimator,
		Allocations:  allocations,
		Reservations: reservations,
		Transactions: transactions,
		UsageLogs:    usageLogs,
	})

	return &testHarness{
		svc:          svc,
		db:           db,
		node:         node,
		clock:        fake,
		allocations:  allocations,
		reservations: reservations,
	}
}

func (h *testHarness) createAllocation(t *testing.T, orgID snowflake.ID, total int64) *allocdomain.Allocation {
	t.Helper()
	created, err := h.allocations.Create(context.Background(), allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypePrepaid,
		TotalCredits: total,
	})
	require.NoError(t, err)
	return created
}

func TestCheckCreditsCountsOutstandingReservations(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	created := h.createAllocation(t, orgID, 500)

	// A concurrent caller already holds 480 credits.
	_, err := h.reservations.Create(ctx, resdomain.CreateRequest{
		OrgID:        orgID,
		AllocationID: created.ID,
		Amount:       480,
		UsageType:    "ai_generation",
	})
	require.NoError(t, err)

	// gpt-4 at $0.03/1k input: 1000 expected input tokens cost 30 credits.
	resp, err := h.svc.CheckCredits(ctx, creditdomain.CheckRequest{
		OrgID:               orgID,
		UsageType:           "ai_generation",
		ModelID:             "gpt-4",
		ExpectedInputTokens: 1000,
	})
	require.NoError(t, err)
	require.False(t, resp.HasCredits)
	require.Equal(t, int64(30), resp.EstimatedCost)
	require.Equal(t, int64(20), resp.AvailableCredits)
	require.Equal(t, creditdomain.ReasonInsufficientCredits, resp.Reason)
	require.Zero(t, resp.ReservationID)
}

func TestCheckCreditsReservesWhenOperationSupplied(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	created := h.createAllocation(t, orgID, 500)

	resp, err := h.svc.CheckCredits(ctx, creditdomain.CheckRequest{
		OrgID:               orgID,
		UsageType:           "ai_generation",
		ModelID:             "gpt-4",
		ExpectedInputTokens: 1000,
		OperationID:         "op-123",
	})
	require.NoError(t, err)
	require.True(t, resp.HasCredits)
	require.NotZero(t, resp.ReservationID)

	reservation, err := h.reservations.Get(ctx, resp.ReservationID)
	require.NoError(t, err)
	require.Equal(t, resdomain.StatusPending, reservation.Status)
	require.Equal(t, resp.EstimatedCost, reservation.Amount)
	require.Equal(t, created.ID, reservation.AllocationID)

	// Without an operation id the check has no side effects.
	resp, err = h.svc.CheckCredits(ctx, creditdomain.CheckRequest{
		OrgID:               orgID,
		UsageType:           "ai_generation",
		ModelID:             "gpt-4",
		ExpectedInputTokens: 100,
	})
	require.NoError(t, err)
	require.True(t, resp.HasCredits)
	require.Zero(t, resp.ReservationID)
}

func TestCheckCreditsWithoutAllocation(t *testing.T) {
	h := newTestHarness(t, config.Config{})

	resp, err := h.svc.CheckCredits(context.Background(), creditdomain.CheckRequest{
		OrgID:     h.node.Generate(),
		UsageType: "ai_generation",
		ModelID:   "gpt-4",
	})
	require.NoError(t, err)
	require.False(t, resp.HasCredits)
	require.Equal(t, creditdomain.ReasonNoActiveAllocation, resp.Reason)
}

func TestCheckCreditsDisabledUsageType(t *testing.T) {
	h := newTestHarness(t, config.Config{
		Credit: config.CreditConfig{
			DisabledFlags: []string{"credit-intensive-ai_generation"},
		},
	})
	orgID := h.node.Generate()
	h.createAllocation(t, orgID, 500)

	resp, err := h.svc.CheckCredits(context.Background(), creditdomain.CheckRequest{
		OrgID:     orgID,
		UsageType: "ai_generation",
		ModelID:   "gpt-4",
	})
	require.NoError(t, err)
	require.False(t, resp.HasCredits)
	require.Equal(t, creditdomain.ReasonUsageTypeDisabled, resp.Reason)
}

func TestRecordUsageWithoutReservation(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	h.createAllocation(t, orgID, 100)

	// gpt-4 fallback pricing: 100 in + 20 out = 5 credits.
	usage, err := h.svc.RecordUsage(ctx, creditdomain.RecordUsageRequest{
		OrgID:        orgID,
		UsageType:    "ai_generation",
		ModelID:      "gpt-4",
		InputTokens:  100,
		OutputTokens: 20,
		Success:      true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), usage.CreditsUsed)

	current, err := h.svc.GetActiveAllocation(ctx, orgID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(95), current.RemainingCredits)

	var debits []txdomain.Transaction
	require.NoError(t, h.db.Where("org_id = ? AND type = ?", orgID, txdomain.TransactionTypeDebit).Find(&debits).Error)
	require.Len(t, debits, 1)
	require.Equal(t, int64(5), debits[0].Amount)
}

func TestRecordUsageChargesReservationAmount(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	h.createAllocation(t, orgID, 100)

	check, err := h.svc.CheckCredits(ctx, creditdomain.CheckRequest{
		OrgID:               orgID,
		UsageType:           "ai_generation",
		ModelID:             "gpt-4",
		ExpectedInputTokens: 1000,
		OperationID:         "op-456",
	})
	require.NoError(t, err)
	require.True(t, check.HasCredits)
	require.Equal(t, int64(30), check.EstimatedCost)

	// Actual usage came in far under the estimate; the hold amount is what
	// gets charged.
	_, err = h.svc.RecordUsage(ctx, creditdomain.RecordUsageRequest{
		OrgID:         orgID,
		UsageType:     "ai_generation",
		ModelID:       "gpt-4",
		InputTokens:   100,
		OutputTokens:  20,
		ReservationID: check.ReservationID,
		Success:       true,
	})
	require.NoError(t, err)

	current, err := h.svc.GetActiveAllocation(ctx, orgID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(70), current.RemainingCredits)

	reservation, err := h.reservations.Get(ctx, check.ReservationID)
	require.NoError(t, err)
	require.Equal(t, resdomain.StatusConfirmed, reservation.Status)

	// A second settle against the same reservation fails, the hold is spent.
	_, err = h.svc.RecordUsage(ctx, creditdomain.RecordUsageRequest{
		OrgID:         orgID,
		UsageType:     "ai_generation",
		ModelID:       "gpt-4",
		InputTokens:   10,
		ReservationID: check.ReservationID,
		Success:       true,
	})
	require.ErrorIs(t, err, resdomain.ErrNotPending)
}

func TestRecordUsageLogsBeforeBillingFailure(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	h.createAllocation(t, orgID, 2)

	_, err := h.svc.RecordUsage(ctx, creditdomain.RecordUsageRequest{
		OrgID:        orgID,
		UsageType:    "ai_generation",
		ModelID:      "gpt-4",
		InputTokens:  100,
		OutputTokens: 20,
		Success:      true,
	})
	require.ErrorIs(t, err, allocdomain.ErrInsufficientCredits)

	// The attempt is still visible in usage history.
	var count int64
	require.NoError(t, h.db.Model(&usagelogdomain.UsageLog{}).Where("org_id = ?", orgID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	current, err := h.svc.GetActiveAllocation(ctx, orgID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), current.RemainingCredits)
}

func TestReleaseReservationFreesOutstanding(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	h.createAllocation(t, orgID, 100)

	check, err := h.svc.CheckCredits(ctx, creditdomain.CheckRequest{
		OrgID:               orgID,
		UsageType:           "ai_generation",
		ModelID:             "gpt-4",
		ExpectedInputTokens: 1000,
		OperationID:         "op-789",
	})
	require.NoError(t, err)
	require.True(t, check.HasCredits)

	outstanding, err := h.reservations.Outstanding(ctx, orgID)
	require.NoError(t, err)
	require.Equal(t, int64(30), outstanding)

	require.NoError(t, h.svc.ReleaseReservation(ctx, check.ReservationID))

	outstanding, err = h.reservations.Outstanding(ctx, orgID)
	require.NoError(t, err)
	require.Zero(t, outstanding)

	// Release never touched the balance.
	current, err := h.svc.GetActiveAllocation(ctx, orgID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(100), current.RemainingCredits)
}

func TestGetSystemStatus(t *testing.T) {
	h := newTestHarness(t, config.Config{})
	ctx := context.Background()
	orgID := h.node.Generate()

	h.createAllocation(t, orgID, 100)
	_, err := h.svc.CheckCredits(ctx, creditdomain.CheckRequest{
		OrgID:               orgID,
		UsageType:           "ai_generation",
		ModelID:             "gpt-4",
		ExpectedInputTokens: 100,
		OperationID:         "op-status",
	})
	require.NoError(t, err)

	status, err := h.svc.GetSystemStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Operational)
	require.NotNil(t, status.LatestTransaction)
	require.Equal(t, int64(1), status.ReservationCount)
	require.GreaterOrEqual(t, status.AverageLatencyMs, float64(0))
}
