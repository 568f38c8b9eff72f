// In file: internal/api/types.go

// Package api defines the wire types shared between the HTTP gateway, the
// terminal client and the internal services: request/response bodies for the
// chat endpoint and the token usage counters reported by every LLM provider.
package api

// Usage holds token counts for one or more LLM calls.
// The JSON tags match the OpenAI usage object so it can be decoded directly.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Message is one entry of the displayed chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/v1/chat.
//
// The location is resolved in this order: City, then the explicit
// Latitude/Longitude pair, then the caller's IP address.
type ChatRequest struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	Message        string   `json:"message" binding:"required"`
	City           string   `json:"city,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

// Location is the resolved position a chat turn was answered for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Stats summarises the token usage of a whole conversation.
type Stats struct {
	Messages      int     `json:"messages"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	TotalCost     float64 `json:"total_cost"`
	FormattedCost string  `json:"formatted_cost"`
}

// ChatResponse is the body returned by POST /api/v1/chat.
type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Answer         string   `json:"answer"`
	ModelUsed      string   `json:"model_used"`
	Location       Location `json:"location"`
	Usage          Usage    `json:"usage"`
	ToolCalls      []string `json:"tool_calls,omitempty"`
	LatencyMS      int64    `json:"latency_ms"`
	Stats          Stats    `json:"stats"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}
