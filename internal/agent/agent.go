// In file: internal/agent/agent.go

// Package agent answers a single weather question by driving a two-call
// exchange with an LLM: the first call may request the get_weather tool,
// the tool runs against the weather provider, and the second call turns the
// result into the final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1024

	DefaultSystemPrompt = `You are a helpful weather assistant. When users ask about weather,
use the get_weather tool to provide accurate, current weather information.
Be conversational and friendly.`
)

// Phase is the state of one exchange.
type Phase int

const (
	// PhaseAwaitingInitialAnswer covers the first LLM call.
	PhaseAwaitingInitialAnswer Phase = iota
	// PhaseAwaitingFinalAnswer covers the call that carries the tool result.
	PhaseAwaitingFinalAnswer
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingInitialAnswer:
		return "awaiting_initial_answer"
	case PhaseAwaitingFinalAnswer:
		return "awaiting_final_answer"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// WeatherFetcher is the weather provider the agent calls for get_weather.
type WeatherFetcher = tools.WeatherFetcher

// UserQuery is one question asked from a location.
type UserQuery struct {
	Message   string
	Latitude  float64
	Longitude float64
}

// InitialMessage prefixes the question with the caller's coordinates.
func (q UserQuery) InitialMessage() string {
	return fmt.Sprintf("My location: latitude %v, longitude %v\n\n%s", q.Latitude, q.Longitude, q.Message)
}

func (q UserQuery) validate() error {
	for _, v := range []float64{q.Latitude, q.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidCoordinates
		}
	}
	return nil
}

// Config holds the per-request LLM parameters. Zero fields take defaults.
type Config struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  *float32
}

// Result is the outcome of one exchange.
type Result struct {
	// Answer is the text of the final response.
	Answer string
	// Model is the model that produced the final response.
	Model string
	// Usage sums both LLM calls.
	Usage api.Usage
	// LLMCalls is 1 for a direct answer, 2 after a tool round-trip.
	LLMCalls int
	// ToolCalls lists the invocations that were executed.
	ToolCalls []llm.ToolInvocation
	// Phase is the phase the exchange finished in.
	Phase Phase
}

// Agent runs exchanges. It holds no per-conversation state and is safe for
// concurrent use.
type Agent struct {
	client    llm.LLMClient
	tools     *tools.ToolManager
	config    llm.GenerationConfig
	catalogue []tools.Tool
}

// New creates an Agent.
func New(client llm.LLMClient, fetcher WeatherFetcher, cfg Config) (*Agent, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	if fetcher == nil {
		return nil, errors.New("weather fetcher is required")
	}
	gen := llm.GenerationConfig{
		Model:       cfg.Model,
		System:      cfg.SystemPrompt,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if gen.Model == "" {
		gen.Model = DefaultModel
	}
	if gen.System == "" {
		gen.System = DefaultSystemPrompt
	}
	if gen.MaxTokens <= 0 {
		gen.MaxTokens = DefaultMaxTokens
	}
	manager := tools.NewToolManager()
	manager.Register(tools.NewWeatherExecutor(fetcher))
	return &Agent{
		client:    client,
		tools:     manager,
		config:    gen,
		catalogue: manager.GetDefinitions(),
	}, nil
}

// Model returns the configured model id.
func (a *Agent) Model() string {
	return a.config.Model
}

// Chat answers q. Errors from the LLM provider, the weather provider and
// protocol violations are returned unchanged; nothing is retried.
func (a *Agent) Chat(ctx context.Context, q UserQuery) (*Result, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	config := a.config
	userMsg := llm.NewUserMessage(q.InitialMessage())
	result := &Result{Phase: PhaseAwaitingInitialAnswer}

	first, err := a.client.Generate(ctx, []llm.Message{userMsg}, &config, a.catalogue)
	if err != nil {
		return nil, fmt.Errorf("initial %s call failed: %w", a.client.Name(), err)
	}
	result.LLMCalls++
	result.Usage.Add(first.Usage)
	result.Model = first.Model

	if first.StopReason != llm.StopReasonToolUse {
		result.Answer = llm.DecodeText(first.Content)
		return result, nil
	}

	inv, err := llm.DecodeToolInvocation(first.Content)
	if err != nil {
		return nil, err
	}
	toolResult, err := a.execute(ctx, inv)
	if err != nil {
		return nil, err
	}
	result.ToolCalls = append(result.ToolCalls, inv)
	result.Phase = PhaseAwaitingFinalAnswer

	history := []llm.Message{
		userMsg,
		{Role: llm.RoleAssistant, Content: first.Content},
		{Role: llm.RoleUser, Content: []llm.ContentBlock{toolResult}},
	}
	final, err := a.client.Generate(ctx, history, &config, a.catalogue)
	if err != nil {
		return nil, fmt.Errorf("follow-up %s call failed: %w", a.client.Name(), err)
	}
	result.LLMCalls++
	result.Usage.Add(final.Usage)
	if final.Model != "" {
		result.Model = final.Model
	}
	if final.StopReason == llm.StopReasonToolUse {
		log.Printf("Ignoring further tool request from %s; answering with available text", a.client.Name())
	}
	result.Answer = llm.DecodeText(final.Content)
	return result, nil
}

// execute runs inv through the tool registry and returns the block
// carrying its output.
func (a *Agent) execute(ctx context.Context, inv llm.ToolInvocation) (llm.ToolResultBlock, error) {
	out, err := a.tools.Execute(ctx, inv.Name, inv.Input)
	if err != nil {
		return llm.ToolResultBlock{}, err
	}
	return llm.ToolResultBlock{ToolUseID: inv.ID, Content: out}, nil
}
