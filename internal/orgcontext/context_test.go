package orgcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), snowflake.ID(42))
	ctx = WithUserID(ctx, snowflake.ID(7))

	orgID, ok := OrgIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, snowflake.ID(42), orgID)

	userID, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, snowflake.ID(7), userID)
}

func TestMissingValues(t *testing.T) {
	_, ok := OrgIDFromContext(context.Background())
	require.False(t, ok)

	_, ok = UserIDFromContext(context.Background())
	require.False(t, ok)
}

func TestLooselyTypedValues(t *testing.T) {
	ctx := context.WithValue(context.Background(), OrgContextKey{}, int64(99))
	orgID, ok := OrgIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, snowflake.ID(99), orgID)

	ctx = context.WithValue(context.Background(), UserContextKey{}, " 123 ")
	userID, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, snowflake.ID(123), userID)

	ctx = context.WithValue(context.Background(), UserContextKey{}, "not-a-number")
	_, ok = UserIDFromContext(ctx)
	require.False(t, ok)
}
