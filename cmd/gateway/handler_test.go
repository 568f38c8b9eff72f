package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	// Packages
	agent "github.com/dileep-u-k/weather-agent/internal/agent"
	api "github.com/dileep-u-k/weather-agent/internal/api"
	llm "github.com/dileep-u-k/weather-agent/internal/llm"
	session "github.com/dileep-u-k/weather-agent/internal/session"
	usage "github.com/dileep-u-k/weather-agent/internal/usage"
	weather "github.com/dileep-u-k/weather-agent/internal/weather"
	gin "github.com/gin-gonic/gin"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// TEST SET-UP

type fakeAgent struct {
	mu      sync.Mutex
	result  *agent.Result
	err     error
	queries []agent.UserQuery
}

func (f *fakeAgent) Chat(_ context.Context, q agent.UserQuery) (*agent.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.result, f.err
}

func (f *fakeAgent) Model() string { return "claude-sonnet-4-20250514" }

type fakeLocator struct {
	cities  map[string]*weather.Coordinates
	ip      *weather.Coordinates
	geoErr  error
	ipCalls int
}

func (f *fakeLocator) ResolveCoordinates(_ context.Context, city string) (*weather.Coordinates, error) {
	if f.geoErr != nil {
		return nil, f.geoErr
	}
	return f.cities[city], nil
}

func (f *fakeLocator) LocateByIP(_ context.Context, _ string) (*weather.Coordinates, error) {
	f.ipCalls++
	return f.ip, nil
}

type fakeLedger struct {
	successes []string
	failures  []string
}

func (f *fakeLedger) RecordSuccess(_ context.Context, modelID string, _ time.Duration, _ api.Usage) float64 {
	f.successes = append(f.successes, modelID)
	return 0
}

func (f *fakeLedger) RecordFailure(_ context.Context, modelID string) {
	f.failures = append(f.failures, modelID)
}

var london = &weather.Coordinates{Latitude: 51.5074, Longitude: -0.1278, Name: "London"}

type fixture struct {
	engine  *gin.Engine
	agent   *fakeAgent
	locator *fakeLocator
	store   *session.MemoryStore
	ledger  *fakeLedger
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		agent: &fakeAgent{result: &agent.Result{
			Answer:    "It's 15.5°C and partly cloudy in London.",
			Model:     "claude-sonnet-4-20250514",
			Usage:     api.Usage{PromptTokens: 300, CompletionTokens: 50, TotalTokens: 350},
			LLMCalls:  2,
			ToolCalls: []llm.ToolInvocation{{ID: "t1", Name: "get_weather"}},
		}},
		locator: &fakeLocator{cities: map[string]*weather.Coordinates{"London": london}},
		store:   session.NewMemoryStore(time.Hour),
		ledger:  &fakeLedger{},
	}
	f.engine = gin.New()
	NewGatewayHandler(f.agent, f.locator, f.store, f.ledger, usage.DefaultPricing).Register(f.engine)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func ptr(v float64) *float64 { return &v }

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_handler_001(t *testing.T) {
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), `"status":"ok"`)
}

func Test_handler_002(t *testing.T) {
	// chat by city
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "What's the weather?", City: "London"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(resp.ConversationID)
	assert.Equal("It's 15.5°C and partly cloudy in London.", resp.Answer)
	assert.Equal("London", resp.Location.Name)
	assert.Equal([]string{"get_weather"}, resp.ToolCalls)
	assert.Equal(1, resp.Stats.Messages)
	assert.Equal(300, resp.Stats.InputTokens)
	assert.Equal([]string{"claude-sonnet-4-20250514"}, f.ledger.successes)

	require.Len(t, f.agent.queries, 1)
	assert.Equal(agent.UserQuery{Message: "What's the weather?", Latitude: 51.5074, Longitude: -0.1278}, f.agent.queries[0])

	state, err := f.store.Load(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Len(state.Messages, 2)
}

func Test_handler_003(t *testing.T) {
	// follow-up turn reuses the conversation's location
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?", City: "London"})
	require.Equal(t, http.StatusOK, w.Code)
	var first api.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{ConversationID: first.ConversationID, Message: "And tomorrow?"})
	require.Equal(t, http.StatusOK, w.Code)
	var second api.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(first.ConversationID, second.ConversationID)
	assert.Equal(2, second.Stats.Messages)
	assert.Equal(0, f.locator.ipCalls)
	require.Len(t, f.agent.queries, 2)
	assert.Equal(51.5074, f.agent.queries[1].Latitude)

	w = f.do(t, http.MethodGet, "/api/v1/conversations/"+first.ConversationID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var convo struct {
		Messages []api.Message `json:"messages"`
		Stats    api.Stats     `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &convo))
	assert.Len(convo.Messages, 4)
	assert.Equal("And tomorrow?", convo.Messages[2].Content)
}

func Test_handler_004(t *testing.T) {
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?", City: "InvalidCityXYZ123"})
	assert.Equal(http.StatusNotFound, w.Code)
	assert.Contains(w.Body.String(), "City 'InvalidCityXYZ123' not found")
	assert.Empty(f.agent.queries)
}

func Test_handler_005(t *testing.T) {
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodPost, "/api/v1/chat", map[string]any{"city": "London"})
	assert.Equal(http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?", Latitude: ptr(10)})
	assert.Equal(http.StatusBadRequest, w.Code)
	assert.Empty(f.agent.queries)
}

func Test_handler_006(t *testing.T) {
	// explicit coordinates
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?", Latitude: ptr(48.8566), Longitude: ptr(2.3522)})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.agent.queries, 1)
	assert.Equal(48.8566, f.agent.queries[0].Latitude)
	assert.Equal(2.3522, f.agent.queries[0].Longitude)
}

func Test_handler_007(t *testing.T) {
	// IP fallback
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?"})
	assert.Equal(http.StatusBadRequest, w.Code)
	assert.Contains(w.Body.String(), "location_required")
	assert.Equal(1, f.locator.ipCalls)

	f.locator.ip = &weather.Coordinates{Latitude: 40.7128, Longitude: -74.006, Name: "New York"}
	w = f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(40.7128, f.agent.queries[0].Latitude)
}

func Test_handler_008(t *testing.T) {
	// agent failures become friendly messages in the transcript
	assert := assert.New(t)
	f := newFixture()
	f.agent.result = nil
	f.agent.err = &weather.WeatherServiceError{Kind: weather.WeatherTimeout, Err: context.DeadlineExceeded}

	w := f.do(t, http.MethodPost, "/api/v1/chat", api.ChatRequest{Message: "Weather?", City: "London"})
	assert.Equal(http.StatusGatewayTimeout, w.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal("weather_timeout", resp.Error)
	assert.Equal("Sorry, I encountered an error: weather service timed out", resp.Message)
	assert.Equal([]string{"claude-sonnet-4-20250514"}, f.ledger.failures)

	state, err := f.store.Load(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, state.Messages, 2)
	assert.Equal(resp.Message, state.Messages[1].Content)
	assert.Zero(state.Stats.Messages)
}

func Test_handler_009(t *testing.T) {
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodGet, "/api/v1/conversations/unknown", nil)
	assert.Equal(http.StatusNotFound, w.Code)
}

func Test_handler_010(t *testing.T) {
	assert := assert.New(t)
	f := newFixture()
	w := f.do(t, http.MethodGet, "/api/v1/geocode?city=London", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loc api.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loc))
	assert.Equal(api.Location{Latitude: 51.5074, Longitude: -0.1278, Name: "London"}, loc)

	w = f.do(t, http.MethodGet, "/api/v1/geocode?city=Atlantis", nil)
	assert.Equal(http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/geocode", nil)
	assert.Equal(http.StatusBadRequest, w.Code)

	f.locator.geoErr = &weather.LocationServiceError{Kind: weather.LocationTimeout, Query: "London", Err: context.DeadlineExceeded}
	w = f.do(t, http.MethodGet, "/api/v1/geocode?city=London", nil)
	assert.Equal(http.StatusGatewayTimeout, w.Code)
	assert.Contains(w.Body.String(), "location_timeout")
}

func Test_statusForError_001(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(http.StatusBadRequest, statusForError(agent.ErrInvalidCoordinates))
	assert.Equal(http.StatusBadGateway, statusForError(&weather.WeatherServiceError{Kind: weather.WeatherAuthenticationFailure, Status: 401}))
	assert.Equal(http.StatusBadGateway, statusForError(&llm.APIError{Provider: "anthropic", StatusCode: 529}))
	assert.Equal(http.StatusBadGateway, statusForError(llm.ErrNoToolUseFound))
	assert.Equal(http.StatusBadGateway, statusForError(&agent.UnsupportedToolError{Name: "x"}))
	assert.Equal(http.StatusGatewayTimeout, statusForError(context.DeadlineExceeded))
	assert.Equal(http.StatusInternalServerError, statusForError(errors.New("boom")))

	assert.Equal("weather_authentication_failure", errorCode(&weather.WeatherServiceError{Kind: weather.WeatherAuthenticationFailure}))
	assert.Equal("unsupported_tool", errorCode(&agent.UnsupportedToolError{Name: "x"}))
	assert.Equal("no_tool_use_found", errorCode(llm.ErrNoToolUseFound))
	assert.Equal("internal_error", errorCode(errors.New("boom")))
}
