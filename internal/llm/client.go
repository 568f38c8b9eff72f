// In file: internal/llm/client.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason tells whether a response is final or waits for a tool result.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonToolUse      StopReason = "tool_use"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// ContentBlock is one unit of message content. The set of implementations
// is closed: TextBlock, ToolUseBlock, ToolResultBlock and RawBlock, either
// as values or pointers.
type ContentBlock interface {
	blockType() string
}

// TextBlock is plain text produced by the user or the model.
type TextBlock struct {
	Text string
}

// ToolUseBlock is the model's request to invoke a tool.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResultBlock carries a tool's output back to the model, correlated to
// the request by ToolUseID.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// RawBlock is a provider block with no portable equivalent, such as an
// Anthropic thinking block. Data is kept verbatim so the block can be sent
// back to the provider that produced it.
type RawBlock struct {
	Type string
	Data json.RawMessage
}

func (TextBlock) blockType() string       { return "text" }
func (ToolUseBlock) blockType() string    { return "tool_use" }
func (ToolResultBlock) blockType() string { return "tool_result" }
func (b RawBlock) blockType() string      { return b.Type }

// blockValue dereferences pointer variants so converters only switch over
// values. A nil pointer yields nil.
func blockValue(block ContentBlock) ContentBlock {
	switch b := block.(type) {
	case *TextBlock:
		if b != nil {
			return *b
		}
	case *ToolUseBlock:
		if b != nil {
			return *b
		}
	case *ToolResultBlock:
		if b != nil {
			return *b
		}
	case *RawBlock:
		if b != nil {
			return *b
		}
	default:
		return block
	}
	return nil
}

// Message represents a single message in a conversation history.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// NewUserMessage returns a user message holding a single text block.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock{Text: text}}}
}

// GenerationConfig holds the parameters of one generation request.
type GenerationConfig struct {
	// The model to use (e.g. "claude-sonnet-4-20250514").
	Model string
	// System prompt sent alongside the messages.
	System string
	// The maximum number of tokens to generate in the response.
	MaxTokens int
	// Controls randomness; nil leaves the provider default.
	Temperature *float32
}

// GenerationResult holds the complete output of one LLM call.
type GenerationResult struct {
	// Why the model stopped; StopReasonToolUse means a tool call is pending.
	StopReason StopReason
	// The ordered content blocks of the response.
	Content []ContentBlock
	// Token usage statistics for the request.
	Usage api.Usage
	// The model that produced the response, as reported by the provider.
	Model string
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is implemented by every provider client (Anthropic, Gemini,
// OpenAI-compatible). Implementations make exactly one attempt per call and
// must be safe for concurrent use.
type LLMClient interface {
	// Name returns the provider name.
	Name() string

	// Generate sends the conversation and tool catalogue and blocks until
	// the complete response is available.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}

// APIError is returned when a provider answers with a non-2xx status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}
