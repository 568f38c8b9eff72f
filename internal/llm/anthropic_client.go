// In file: internal/llm/anthropic_client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

const (
	// AnthropicAPIURL is the Messages API endpoint.
	AnthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// --- API Data Structures ---

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
}
type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}
type anthropicTool struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema tools.JSONSchema `json:"input_schema"`
}
type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`

	// raw, when set, is sent instead of the fields above.
	raw json.RawMessage
}
type anthropicResponse struct {
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
	Content    []json.RawMessage `json:"content"`
	Usage      anthropicUsage    `json:"usage"`
}

func (b anthropicContentBlock) MarshalJSON() ([]byte, error) {
	if len(b.raw) > 0 {
		return b.raw, nil
	}
	type plain anthropicContentBlock
	return json.Marshal(plain(b))
}

// --- Main Client ---
type AnthropicClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

var _ LLMClient = (*AnthropicClient)(nil)

func NewAnthropicClient(apiKey string, opts ...ClientOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key cannot be empty")
	}
	o := applyOptions(AnthropicAPIURL, opts)
	return &AnthropicClient{
		apiKey:     apiKey,
		url:        o.baseURL,
		httpClient: o.httpClient,
	}, nil
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build anthropic request payload: %w", err)
	}
	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	return parseAnthropicResponse(respBody)
}

// --- Helper Functions ---
func (c *AnthropicClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	if config == nil {
		return nil, errors.New("generation config is required")
	}
	anthropicMsgs, err := toAnthropicMessages(messages)
	if err != nil {
		return nil, err
	}
	req := anthropicRequest{
		Model:       config.Model,
		Messages:    anthropicMsgs,
		System:      config.System,
		Tools:       toAnthropicTools(availableTools),
		MaxTokens:   defaultMaxTokens,
		Temperature: config.Temperature,
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	payloadBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return payloadBytes, nil
}

func toAnthropicMessages(messages []Message) ([]anthropicMessage, error) {
	anthropicMsgs := make([]anthropicMessage, 0, len(messages))
	for _, msg := range messages {
		aMsg := anthropicMessage{Role: string(msg.Role)}
		for _, block := range msg.Content {
			aBlock, err := toAnthropicBlock(block)
			if err != nil {
				return nil, err
			}
			aMsg.Content = append(aMsg.Content, aBlock)
		}
		anthropicMsgs = append(anthropicMsgs, aMsg)
	}
	return anthropicMsgs, nil
}

func toAnthropicBlock(block ContentBlock) (anthropicContentBlock, error) {
	switch b := blockValue(block).(type) {
	case TextBlock:
		return anthropicContentBlock{Type: "text", Text: b.Text}, nil
	case ToolUseBlock:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return anthropicContentBlock{Type: "tool_use", ID: b.ID, Name: b.Name, Input: input}, nil
	case ToolResultBlock:
		return anthropicContentBlock{Type: "tool_result", ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError}, nil
	case RawBlock:
		if len(b.Data) == 0 {
			return anthropicContentBlock{}, fmt.Errorf("empty %s block", b.Type)
		}
		return anthropicContentBlock{Type: b.Type, raw: b.Data}, nil
	default:
		return anthropicContentBlock{}, fmt.Errorf("unsupported content block %T", block)
	}
}

func toAnthropicTools(toolsToConvert []tools.Tool) []anthropicTool {
	if len(toolsToConvert) == 0 {
		return nil
	}
	anthropicTools := make([]anthropicTool, 0, len(toolsToConvert))
	for _, t := range toolsToConvert {
		anthropicTools = append(anthropicTools, anthropicTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		})
	}
	return anthropicTools
}

func parseAnthropicResponse(body []byte) (*GenerationResult, error) {
	var anthropicResp anthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anthropic response: %w", err)
	}
	content := make([]ContentBlock, 0, len(anthropicResp.Content))
	for _, raw := range anthropicResp.Content {
		var block anthropicContentBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			return nil, fmt.Errorf("failed to unmarshal anthropic content block: %w", err)
		}
		switch block.Type {
		case "text":
			content = append(content, TextBlock{Text: block.Text})
		case "tool_use":
			content = append(content, ToolUseBlock{ID: block.ID, Name: block.Name, Input: block.Input})
		default:
			// Thinking and other provider blocks go back verbatim.
			content = append(content, RawBlock{Type: block.Type, Data: append(json.RawMessage(nil), raw...)})
		}
	}
	usage := api.Usage{
		PromptTokens:     anthropicResp.Usage.InputTokens,
		CompletionTokens: anthropicResp.Usage.OutputTokens,
		TotalTokens:      anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
	}
	return &GenerationResult{
		StopReason: StopReason(anthropicResp.StopReason),
		Content:    content,
		Usage:      usage,
		Model:      anthropicResp.Model,
	}, nil
}

func (c *AnthropicClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	if err := resp.Body.Close(); err != nil {
		log.Printf("Warning: Failed to close response body: %v", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Provider: "anthropic", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
