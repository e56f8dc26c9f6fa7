package tokenestimate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	e := New()

	require.Equal(t, int64(0), e.EstimateTokens(""))
	require.Equal(t, int64(0), e.EstimateTokens("   "))
	require.Equal(t, int64(1), e.EstimateTokens("hi"))
	require.Equal(t, int64(1), e.EstimateTokens("four"))
	require.Equal(t, int64(2), e.EstimateTokens("fours"))
	require.Equal(t, int64(25), e.EstimateTokens(strings.Repeat("a", 100)))
}

func TestEstimateTokensForConversation(t *testing.T) {
	e := New()

	messages := []Message{
		{Role: "system", Content: strings.Repeat("a", 40)},
		{Role: "user", Content: strings.Repeat("b", 8)},
	}

	// 10 + 2 content tokens plus 4 framing tokens per message.
	require.Equal(t, int64(20), e.EstimateTokensForConversation(messages))
	require.Equal(t, int64(0), e.EstimateTokensForConversation(nil))
}
