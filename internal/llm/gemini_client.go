// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiToolCallPrefix prefixes the synthetic tool-use ids; Gemini function
// calls carry no id of their own.
const geminiToolCallPrefix = "gemini-toolcall-"

// GeminiClient is the client for interacting with Google's Gemini models.
// A GenerativeModel is derived per call so concurrent requests never share
// mutable model settings.
type GeminiClient struct {
	client  *genai.Client
	timeout time.Duration
}

var _ LLMClient = (*GeminiClient)(nil)

func NewGeminiClient(apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	o := applyOptions("", opts)
	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.baseURL))
	}
	client, err := genai.NewClient(context.Background(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, timeout: o.timeout}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

// Close releases the underlying SDK connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate performs a standard, blocking request to the Gemini API.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if config == nil {
		return nil, errors.New("generation config is required")
	}
	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.client.GenerativeModel(config.Model)
	configureModel(model, config, availableTools)

	contents, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}
	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	resp, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	result, err := parseGeminiResponse(resp)
	if err != nil {
		return nil, err
	}
	result.Model = config.Model
	return result, nil
}

// configureModel applies per-request settings using the SDK's setter methods.
func configureModel(model *genai.GenerativeModel, config *GenerationConfig, availableTools []tools.Tool) {
	if config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	} else {
		model.SetMaxOutputTokens(defaultMaxTokens)
	}
	if config.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(config.System)}}
	}
	if len(availableTools) > 0 {
		model.Tools = toGeminiTools(availableTools)
	}
}

// toGeminiTools converts our internal tool definition to the Gemini SDK's format.
func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(toolsToConvert))
	for _, t := range toolsToConvert {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// convertSchema converts our JSONSchema to the Gemini SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	genaiSchema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number":
		genaiSchema.Type = genai.TypeNumber
	case "integer":
		genaiSchema.Type = genai.TypeInteger
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	}
	if len(s.Properties) > 0 {
		genaiSchema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			if v != nil {
				genaiSchema.Properties[k] = convertSchema(*v)
			}
		}
	}
	return genaiSchema
}

// toGeminiContents converts our message history to the Gemini SDK's format.
func toGeminiContents(messages []Message) ([]*genai.Content, error) {
	toolNames := make(map[string]string)
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		content := &genai.Content{Role: role}
		for _, block := range msg.Content {
			switch b := blockValue(block).(type) {
			case TextBlock:
				content.Parts = append(content.Parts, genai.Text(b.Text))
			case ToolUseBlock:
				args := map[string]any{}
				if len(b.Input) > 0 {
					if err := json.Unmarshal(b.Input, &args); err != nil {
						return nil, fmt.Errorf("invalid tool input for %s: %w", b.Name, err)
					}
				}
				toolNames[b.ID] = b.Name
				content.Parts = append(content.Parts, genai.FunctionCall{Name: b.Name, Args: args})
			case ToolResultBlock:
				name, ok := toolNames[b.ToolUseID]
				if !ok {
					name = strings.TrimPrefix(b.ToolUseID, geminiToolCallPrefix)
				}
				content.Parts = append(content.Parts, genai.FunctionResponse{
					Name:     name,
					Response: toolResponseMap(b),
				})
			case RawBlock:
				// Provider-specific; nothing to resend.
			default:
				return nil, fmt.Errorf("unsupported content block %T", block)
			}
		}
		contents = append(contents, content)
	}
	return contents, nil
}

// toolResponseMap shapes a tool result as the object Gemini expects. JSON
// objects pass through; anything else is wrapped.
func toolResponseMap(b ToolResultBlock) map[string]any {
	if b.IsError {
		return map[string]any{"error": b.Content}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(b.Content), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"content": b.Content}
}

// parseGeminiResponse converts a Gemini API response into our internal GenerationResult.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}
	candidate := resp.Candidates[0]
	result := &GenerationResult{StopReason: StopReasonEndTurn}
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		result.StopReason = StopReasonMaxTokens
	}

	for _, part := range candidate.Content.Parts {
		var call *genai.FunctionCall
		switch v := part.(type) {
		case genai.Text:
			if text := strings.TrimSpace(string(v)); text != "" {
				result.Content = append(result.Content, TextBlock{Text: text})
			}
		case genai.FunctionCall:
			call = &v
		case *genai.FunctionCall:
			call = v
		}
		if call == nil {
			continue
		}
		args, err := json.Marshal(call.Args)
		if err != nil {
			log.Printf("Warning: could not marshal tool call args: %v", err)
			continue
		}
		result.Content = append(result.Content, ToolUseBlock{
			ID:    geminiToolCallPrefix + call.Name,
			Name:  call.Name,
			Input: args,
		})
		result.StopReason = StopReasonToolUse
	}

	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}
