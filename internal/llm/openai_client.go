// In file: internal/llm/openai_client.go
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
	"strings"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

const (
	// OpenAIAPIURL is the OpenAI chat completions endpoint.
	OpenAIAPIURL = "https://api.openai.com/v1/chat/completions"
	// MistralAPIURL is Mistral's OpenAI-compatible chat completions endpoint.
	MistralAPIURL = "https://api.mistral.ai/v1/chat/completions"
)

// openAIRequest defines the top-level structure for a chat completions call.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
}

// openAIMessage represents a single message in a conversation.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// openAITool defines the structure for a tool that the API can use.
type openAITool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}

// openAIResponse is the structure of a successful response from the API.
type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage api.Usage `json:"usage"`
}

// OpenAIClient talks to any OpenAI-compatible chat completions API. The
// same client serves OpenAI and Mistral.
type OpenAIClient struct {
	provider   string
	apiKey     string
	url        string
	httpClient *http.Client
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	return newOpenAICompatibleClient("openai", OpenAIAPIURL, apiKey, opts)
}

// NewMistralClient creates a client for Mistral's OpenAI-compatible API.
func NewMistralClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	return newOpenAICompatibleClient("mistral", MistralAPIURL, apiKey, opts)
}

func newOpenAICompatibleClient(provider, defaultURL, apiKey string, opts []ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key cannot be empty", provider)
	}
	o := applyOptions(defaultURL, opts)
	return &OpenAIClient{
		provider:   provider,
		apiKey:     apiKey,
		url:        o.baseURL,
		httpClient: o.httpClient,
	}, nil
}

func (c *OpenAIClient) Name() string { return c.provider }

// Generate performs a standard, blocking chat completions request.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request payload: %w", c.provider, err)
	}
	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	return parseOpenAIResponse(respBody)
}

// buildRequestPayload constructs the JSON body for the API call.
func (c *OpenAIClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	if config == nil {
		return nil, errors.New("generation config is required")
	}
	openAIMsgs, err := toOpenAIMessages(config.System, messages)
	if err != nil {
		return nil, err
	}
	req := openAIRequest{
		Model:       config.Model,
		Messages:    openAIMsgs,
		Tools:       toOpenAITools(availableTools),
		MaxTokens:   defaultMaxTokens,
		Temperature: config.Temperature,
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}
	payloadBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return payloadBytes, nil
}

// doRequest performs a single HTTP call.
func (c *OpenAIClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	if err := resp.Body.Close(); err != nil {
		log.Printf("Warning: Failed to close response body: %v", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// toOpenAIMessages converts our block-based messages to the chat format.
// Each tool result becomes its own "tool" role message.
func toOpenAIMessages(system string, messages []Message) ([]openAIMessage, error) {
	openAIMsgs := make([]openAIMessage, 0, len(messages)+1)
	if system != "" {
		openAIMsgs = append(openAIMsgs, openAIMessage{Role: "system", Content: system})
	}
	for _, msg := range messages {
		var text []string
		var calls []openAIToolCall
		var results []openAIMessage
		for _, block := range msg.Content {
			switch b := blockValue(block).(type) {
			case TextBlock:
				text = append(text, b.Text)
			case ToolUseBlock:
				args := string(b.Input)
				if args == "" {
					args = "{}"
				}
				calls = append(calls, openAIToolCall{
					ID:       b.ID,
					Type:     tools.ToolTypeFunction,
					Function: openAIFunctionCall{Name: b.Name, Arguments: args},
				})
			case ToolResultBlock:
				results = append(results, openAIMessage{Role: "tool", ToolCallID: b.ToolUseID, Content: b.Content})
			case RawBlock:
				// Provider-specific; nothing to resend.
			default:
				return nil, fmt.Errorf("unsupported content block %T", block)
			}
		}
		if len(results) > 0 {
			openAIMsgs = append(openAIMsgs, results...)
		}
		if len(text) > 0 || len(calls) > 0 {
			openAIMsgs = append(openAIMsgs, openAIMessage{
				Role:      string(msg.Role),
				Content:   strings.Join(text, "\n"),
				ToolCalls: calls,
			})
		}
	}
	return openAIMsgs, nil
}

// toOpenAITools converts our internal tool slice to the API format.
func toOpenAITools(availableTools []tools.Tool) []openAITool {
	if len(availableTools) == 0 {
		return nil
	}
	openAITools := make([]openAITool, 0, len(availableTools))
	for _, tool := range availableTools {
		openAITools = append(openAITools, openAITool{
			Type:     tools.ToolTypeFunction,
			Function: tool.Function,
		})
	}
	return openAITools
}

// parseOpenAIResponse converts a chat completions response to our internal GenerationResult.
func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal openai response: %w", err)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, errors.New("no choices returned from chat completions API")
	}

	choice := openAIResp.Choices[0]
	result := &GenerationResult{
		StopReason: mapFinishReason(choice.FinishReason),
		Usage:      openAIResp.Usage,
		Model:      openAIResp.Model,
	}
	if text := strings.TrimSpace(choice.Message.Content); text != "" {
		result.Content = append(result.Content, TextBlock{Text: text})
	}
	for _, tc := range choice.Message.ToolCalls {
		result.Content = append(result.Content, ToolUseBlock{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	if len(choice.Message.ToolCalls) > 0 {
		result.StopReason = StopReasonToolUse
	}
	if result.Usage.TotalTokens == 0 {
		result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
	}
	return result, nil
}

func mapFinishReason(reason string) StopReason {
	switch reason {
	case "tool_calls", "function_call":
		return StopReasonToolUse
	case "length":
		return StopReasonMaxTokens
	default:
		return StopReasonEndTurn
	}
}
