// In file: internal/usage/usage.go

// Package usage tracks token counts and approximate spend for chat turns:
// per-conversation stats kept with the conversation state, and a Redis
// ledger that aggregates usage per model across all conversations.
package usage

import (
	"fmt"
	"unicode/utf8"

	"github.com/dileep-u-k/weather-agent/internal/api"
)

// DefaultPricing is the Claude Sonnet list price in USD per million tokens.
var DefaultPricing = Pricing{InputPerMillion: 3.0, OutputPerMillion: 15.0}

// Pricing is a per-million-token price pair in USD.
type Pricing struct {
	InputPerMillion  float64 `yaml:"input_per_million" json:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million" json:"output_per_million"`
}

// Cost returns the approximate cost of a call.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*p.InputPerMillion +
		float64(outputTokens)/1_000_000*p.OutputPerMillion
}

// PriceTable maps model ids to prices.
type PriceTable map[string]Pricing

// Lookup returns the price for model, falling back to DefaultPricing.
func (t PriceTable) Lookup(model string) Pricing {
	if p, ok := t[model]; ok {
		return p
	}
	return DefaultPricing
}

// EstimateTokens approximates a token count as one token per four characters.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// FormatCost renders a cost with four decimals below one cent, two otherwise.
func FormatCost(cost float64) string {
	if cost < 0.01 {
		return fmt.Sprintf("$%.4f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

// Stats is the running usage of a single conversation.
type Stats struct {
	Messages     int     `json:"messages"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// Add returns s with one more message of the given token counts.
func (s Stats) Add(inputTokens, outputTokens int, p Pricing) Stats {
	s.Messages++
	s.InputTokens += inputTokens
	s.OutputTokens += outputTokens
	s.TotalCost = p.Cost(s.InputTokens, s.OutputTokens)
	return s
}

// Turn converts the usage of one turn into token counts. Provider-reported
// usage is preferred; when absent the counts are estimated from the text.
func Turn(reported api.Usage, inputText, outputText string) (int, int) {
	if reported.PromptTokens > 0 || reported.CompletionTokens > 0 {
		return reported.PromptTokens, reported.CompletionTokens
	}
	return EstimateTokens(inputText), EstimateTokens(outputText)
}

// Summary converts s into the API representation.
func (s Stats) Summary() api.Stats {
	return api.Stats{
		Messages:      s.Messages,
		InputTokens:   s.InputTokens,
		OutputTokens:  s.OutputTokens,
		TotalCost:     s.TotalCost,
		FormattedCost: FormatCost(s.TotalCost),
	}
}
