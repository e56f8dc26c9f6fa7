// Package tokenestimate approximates token counts for text before a model
// call has produced real counts. The heuristic is roughly four characters
// per token, which tracks English prose closely enough for cost estimation.
package tokenestimate

import (
	"strings"

	"go.uber.org/fx"
)

var Module = fx.Module("tokenestimate",
	fx.Provide(New),
)

const charsPerToken = 4

// perMessageOverhead covers the role and framing tokens chat APIs add
// around each message.
const perMessageOverhead = 4

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Estimator interface {
	EstimateTokens(text string) int64
	EstimateTokensForConversation(messages []Message) int64
}

type estimator struct{}

func New() Estimator {
	return estimator{}
}

func (estimator) EstimateTokens(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n := int64(len(text)) / charsPerToken
	if int64(len(text))%charsPerToken != 0 {
		n++
	}
	return n
}

func (e estimator) EstimateTokensForConversation(messages []Message) int64 {
	var total int64
	for _, m := range messages {
		total += e.EstimateTokens(m.Content) + perMessageOverhead
	}
	return total
}
