package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	txrepo "github.com/fluxori-systems/creditcore/internal/transaction/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) txdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&txdomain.Transaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  txrepo.Provide(),
	})
}

func TestAppendValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, txdomain.AppendRequest{Amount: 10, Type: txdomain.TransactionTypeCredit})
	require.ErrorIs(t, err, txdomain.ErrInvalidOrganization)

	_, err = svc.Append(ctx, txdomain.AppendRequest{OrgID: 1, Type: txdomain.TransactionTypeCredit})
	require.ErrorIs(t, err, txdomain.ErrInvalidAmount)

	_, err = svc.Append(ctx, txdomain.AppendRequest{OrgID: 1, Amount: 10, Type: "refund"})
	require.ErrorIs(t, err, txdomain.ErrInvalidType)
}

func TestAppendNormalizesType(t *testing.T) {
	svc := newTestService(t)

	row, err := svc.Append(context.Background(), txdomain.AppendRequest{
		OrgID:     1,
		Amount:    25,
		Type:      " CREDIT ",
		UsageType: " credits_added ",
	})
	require.NoError(t, err)
	require.Equal(t, txdomain.TransactionTypeCredit, row.Type)
	require.Equal(t, "credits_added", row.UsageType)
}

func TestListRecentScopedToOrganization(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, amount := range []int64{10, 20, 30} {
		_, err := svc.Append(ctx, txdomain.AppendRequest{OrgID: 1, Amount: amount, Type: txdomain.TransactionTypeDebit, UsageType: "ai_generation"})
		require.NoError(t, err)
	}
	_, err := svc.Append(ctx, txdomain.AppendRequest{OrgID: 2, Amount: 99, Type: txdomain.TransactionTypeCredit, UsageType: "allocation_created"})
	require.NoError(t, err)

	rows, err := svc.ListRecent(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, snowflake.ID(1), row.OrgID)
	}

	_, err = svc.ListRecent(ctx, 0, 10)
	require.ErrorIs(t, err, txdomain.ErrInvalidOrganization)
}

func TestLatestSpansAllOrganizationsForZeroOrg(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	latest, err := svc.Latest(ctx, 0)
	require.NoError(t, err)
	require.Nil(t, latest)

	_, err = svc.Append(ctx, txdomain.AppendRequest{OrgID: 7, Amount: 12, Type: txdomain.TransactionTypeDebit, UsageType: "ai_generation"})
	require.NoError(t, err)

	latest, err = svc.Latest(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, snowflake.ID(7), latest.OrgID)

	latest, err = svc.Latest(ctx, 8)
	require.NoError(t, err)
	require.Nil(t, latest)
}
