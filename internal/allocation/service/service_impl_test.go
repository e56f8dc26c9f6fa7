package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	allocdomain "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	allocrepo "github.com/fluxori-systems/creditcore/internal/allocation/repository"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	txrepo "github.com/fluxori-systems/creditcore/internal/transaction/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (allocdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&allocdomain.Allocation{}, &txdomain.Transaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Repo:   allocrepo.Provide(),
		TxRepo: txrepo.Provide(),
	})
	return svc, db, node
}

func countTransactions(t *testing.T, db *gorm.DB, orgID snowflake.ID, txType txdomain.TransactionType) int64 {
	t.Helper()
	var count int64
	err := db.Model(&txdomain.Transaction{}).
		Where("org_id = ? AND type = ?", orgID, txType).
		Count(&count).Error
	require.NoError(t, err)
	return count
}

func TestCreateAppendsCreditTransaction(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypePrepaid,
		TotalCredits: 100,
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), created.TotalCredits)
	require.Equal(t, int64(100), created.RemainingCredits)
	require.True(t, created.Active)

	require.Equal(t, int64(1), countTransactions(t, db, orgID, txdomain.TransactionTypeCredit))
}

func TestAddCreditsCanExceedInitialGrant(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypePrepaid,
		TotalCredits: 100,
	})
	require.NoError(t, err)

	updated, err := svc.AddCredits(ctx, allocdomain.AddCreditsRequest{
		AllocationID: created.ID,
		Amount:       50,
		ActorID:      "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, int64(150), updated.RemainingCredits)
	require.Equal(t, int64(100), updated.TotalCredits)

	require.Equal(t, int64(2), countTransactions(t, db, orgID, txdomain.TransactionTypeCredit))
}

func TestDecrementAppendsDebitTransaction(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypePayAsYouGo,
		TotalCredits: 100,
	})
	require.NoError(t, err)

	updated, err := svc.Decrement(ctx, allocdomain.DecrementRequest{
		AllocationID: created.ID,
		Amount:       30,
		UsageType:    "ai_generation",
		ModelID:      "gpt-4",
		InputTokens:  100,
		OutputTokens: 20,
	})
	require.NoError(t, err)
	require.Equal(t, int64(70), updated.RemainingCredits)

	require.Equal(t, int64(1), countTransactions(t, db, orgID, txdomain.TransactionTypeDebit))

	var debit txdomain.Transaction
	require.NoError(t, db.Where("org_id = ? AND type = ?", orgID, txdomain.TransactionTypeDebit).First(&debit).Error)
	require.Equal(t, int64(30), debit.Amount)
	require.Equal(t, "gpt-4", debit.ModelID)
}

func TestDecrementInsufficientLeavesBalanceUnchanged(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypePrepaid,
		TotalCredits: 100,
	})
	require.NoError(t, err)

	_, err = svc.Decrement(ctx, allocdomain.DecrementRequest{
		AllocationID: created.ID,
		Amount:       60,
		UsageType:    "ai_generation",
	})
	require.NoError(t, err)

	// Second debit of 60 would overdraw the remaining 40.
	_, err = svc.Decrement(ctx, allocdomain.DecrementRequest{
		AllocationID: created.ID,
		Amount:       60,
		UsageType:    "ai_generation",
	})
	require.ErrorIs(t, err, allocdomain.ErrInsufficientCredits)

	current, err := svc.GetActive(ctx, orgID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(40), current.RemainingCredits)

	require.Equal(t, int64(1), countTransactions(t, db, orgID, txdomain.TransactionTypeDebit))
}

func TestDecrementUnknownAllocation(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.Decrement(context.Background(), allocdomain.DecrementRequest{
		AllocationID: node.Generate(),
		Amount:       10,
		UsageType:    "ai_generation",
	})
	require.ErrorIs(t, err, allocdomain.ErrNotFound)
}

func TestGetActivePrefersUserScoped(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()
	userID := node.Generate()

	orgAlloc, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypeSubscription,
		TotalCredits: 500,
	})
	require.NoError(t, err)

	userAlloc, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		UserID:       userID,
		ModelType:    allocdomain.ModelTypePrepaid,
		TotalCredits: 50,
	})
	require.NoError(t, err)

	got, err := svc.GetActive(ctx, orgID, userID)
	require.NoError(t, err)
	require.Equal(t, userAlloc.ID, got.ID)

	// A user without their own allocation falls back to the org-scoped one.
	got, err = svc.GetActive(ctx, orgID, node.Generate())
	require.NoError(t, err)
	require.Equal(t, orgAlloc.ID, got.ID)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	orgID := node.Generate()

	created, err := svc.Create(ctx, allocdomain.CreateRequest{
		OrgID:        orgID,
		ModelType:    allocdomain.ModelTypeQuota,
		TotalCredits: 10,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	got, err := svc.GetActive(ctx, orgID, 0)
	require.NoError(t, err)
	require.Nil(t, got)

	require.ErrorIs(t, svc.Deactivate(ctx, node.Generate()), allocdomain.ErrNotFound)
}
