// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/session"
	"github.com/dileep-u-k/weather-agent/internal/usage"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// chatter answers one question. Implemented by *agent.Agent.
type chatter interface {
	Chat(ctx context.Context, q agent.UserQuery) (*agent.Result, error)
	Model() string
}

// locator turns a city name or a client IP into coordinates. Implemented by
// *weather.Client.
type locator interface {
	ResolveCoordinates(ctx context.Context, city string) (*weather.Coordinates, error)
	LocateByIP(ctx context.Context, ip string) (*weather.Coordinates, error)
}

// usageRecorder aggregates usage per model. Implemented by *usage.Ledger.
type usageRecorder interface {
	RecordSuccess(ctx context.Context, modelID string, latency time.Duration, u api.Usage) float64
	RecordFailure(ctx context.Context, modelID string)
}

var (
	_ chatter       = (*agent.Agent)(nil)
	_ locator       = (*weather.Client)(nil)
	_ usageRecorder = (*usage.Ledger)(nil)
)

// errResponded marks a failure whose HTTP response has already been written.
var errResponded = errors.New("response sent")

type GatewayHandler struct {
	agent   chatter
	locator locator
	store   session.Store
	ledger  usageRecorder
	pricing usage.Pricing
}

// NewGatewayHandler wires the handler. ledger may be nil.
func NewGatewayHandler(a chatter, loc locator, store session.Store, ledger usageRecorder, pricing usage.Pricing) *GatewayHandler {
	return &GatewayHandler{
		agent:   a,
		locator: loc,
		store:   store,
		ledger:  ledger,
		pricing: pricing,
	}
}

// Register mounts the routes on engine.
func (h *GatewayHandler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.HandleHealth)
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/chat", h.HandleChat)
		v1.GET("/conversations/:id", h.HandleGetConversation)
		v1.GET("/geocode", h.HandleGeocode)
	}
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	info := GetBuildInfo()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": info.Version, "model": h.agent.Model()})
}

func (h *GatewayHandler) HandleChat(c *gin.Context) {
	startTime := time.Now()
	ctx := c.Request.Context()

	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid_request", Message: "Invalid request: " + err.Error()})
		return
	}

	state, err := h.loadOrCreate(ctx, req.ConversationID)
	if err != nil {
		log.Printf("❌ Session load failed for %s: %v", req.ConversationID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "session_unavailable", Message: err.Error(), ConversationID: req.ConversationID})
		return
	}
	log.Printf("--- New Chat Turn (Convo: %s, Message: '%.30s...') ---", state.ID, req.Message)

	loc, err := h.resolveLocation(c, &req, state)
	if err != nil {
		return
	}
	state.Location = loc

	result, chatErr := h.agent.Chat(ctx, agent.UserQuery{
		Message:   req.Message,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	state = state.Record(req.Message, result, chatErr, h.pricing)
	if err := h.store.Save(ctx, state); err != nil {
		log.Printf("WARNING: Failed to save conversation %s: %v", state.ID, err)
	}

	latency := time.Since(startTime)
	if chatErr != nil {
		log.Printf("❌ Chat turn failed (Convo: %s): %v", state.ID, chatErr)
		if h.ledger != nil {
			h.ledger.RecordFailure(ctx, h.agent.Model())
		}
		c.JSON(statusForError(chatErr), api.ErrorResponse{
			Error:          errorCode(chatErr),
			Message:        agent.FriendlyError(chatErr),
			ConversationID: state.ID,
		})
		return
	}

	modelUsed := result.Model
	if modelUsed == "" {
		modelUsed = h.agent.Model()
	}
	if h.ledger != nil {
		h.ledger.RecordSuccess(ctx, modelUsed, latency, result.Usage)
	}
	toolCalls := make([]string, 0, len(result.ToolCalls))
	for _, inv := range result.ToolCalls {
		toolCalls = append(toolCalls, inv.Name)
	}
	log.Printf("✅ Answered (Convo: %s, LLM calls: %d, Tools: %v, Latency: %s)", state.ID, result.LLMCalls, toolCalls, latency)

	c.JSON(http.StatusOK, api.ChatResponse{
		ConversationID: state.ID,
		Answer:         result.Answer,
		ModelUsed:      modelUsed,
		Location:       loc,
		Usage:          result.Usage,
		ToolCalls:      toolCalls,
		LatencyMS:      latency.Milliseconds(),
		Stats:          state.Stats.Summary(),
	})
}

func (h *GatewayHandler) HandleGetConversation(c *gin.Context) {
	id := c.Param("id")
	state, err := h.store.Load(c.Request.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "not_found", Message: err.Error(), ConversationID: id})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "session_unavailable", Message: err.Error(), ConversationID: id})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": state.ID,
		"location":        state.Location,
		"messages":        state.Messages,
		"stats":           state.Stats.Summary(),
		"created_at":      state.CreatedAt,
		"updated_at":      state.UpdatedAt,
	})
}

func (h *GatewayHandler) HandleGeocode(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid_request", Message: "city query parameter is required"})
		return
	}
	coords, err := h.locator.ResolveCoordinates(c.Request.Context(), city)
	if err != nil {
		c.JSON(statusForError(err), api.ErrorResponse{Error: errorCode(err), Message: err.Error()})
		return
	}
	if coords == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "city_not_found", Message: cityNotFound(city)})
		return
	}
	c.JSON(http.StatusOK, toLocation(coords, city))
}

// loadOrCreate returns the stored conversation, or a new one when id is
// empty or unknown.
func (h *GatewayHandler) loadOrCreate(ctx context.Context, id string) (agent.ConversationState, error) {
	if id == "" {
		return agent.NewConversationState(uuid.NewString(), api.Location{}), nil
	}
	state, err := h.store.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return agent.NewConversationState(id, api.Location{}), nil
	}
	return state, err
}

// resolveLocation picks the turn's coordinates: the request's city, then
// explicit coordinates, then the conversation's last location, then the
// client IP. On failure the response has been written.
func (h *GatewayHandler) resolveLocation(c *gin.Context, req *api.ChatRequest, state agent.ConversationState) (api.Location, error) {
	ctx := c.Request.Context()
	switch {
	case req.City != "":
		coords, err := h.locator.ResolveCoordinates(ctx, req.City)
		if err != nil {
			c.JSON(statusForError(err), api.ErrorResponse{Error: errorCode(err), Message: agent.FriendlyError(err), ConversationID: state.ID})
			return api.Location{}, errResponded
		}
		if coords == nil {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "city_not_found", Message: cityNotFound(req.City), ConversationID: state.ID})
			return api.Location{}, errResponded
		}
		return toLocation(coords, req.City), nil

	case req.Latitude != nil || req.Longitude != nil:
		if req.Latitude == nil || req.Longitude == nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid_request", Message: "latitude and longitude must be given together", ConversationID: state.ID})
			return api.Location{}, errResponded
		}
		return api.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}, nil

	case len(state.Messages) > 0:
		return state.Location, nil
	}

	coords, err := h.locator.LocateByIP(ctx, c.ClientIP())
	if err != nil {
		c.JSON(statusForError(err), api.ErrorResponse{Error: errorCode(err), Message: agent.FriendlyError(err), ConversationID: state.ID})
		return api.Location{}, errResponded
	}
	if coords == nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "location_required", Message: "Could not determine your location. Please provide a city or coordinates.", ConversationID: state.ID})
		return api.Location{}, errResponded
	}
	return toLocation(coords, ""), nil
}

func toLocation(coords *weather.Coordinates, fallbackName string) api.Location {
	name := coords.Name
	if name == "" {
		name = fallbackName
	}
	return api.Location{Latitude: coords.Latitude, Longitude: coords.Longitude, Name: name}
}

func cityNotFound(city string) string {
	return fmt.Sprintf("City '%s' not found. Please check spelling or try another city.", city)
}

// statusForError maps a failed turn to an HTTP status.
func statusForError(err error) int {
	var (
		wxErr       *weather.WeatherServiceError
		locErr      *weather.LocationServiceError
		apiErr      *llm.APIError
		unsupported *agent.UnsupportedToolError
		invalid     *agent.InvalidToolInputError
	)
	switch {
	case errors.Is(err, agent.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.As(err, &wxErr):
		if wxErr.Kind == weather.WeatherTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &locErr):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr),
		errors.Is(err, llm.ErrNoToolUseFound),
		errors.As(err, &unsupported),
		errors.As(err, &invalid):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable error field of an ErrorResponse.
func errorCode(err error) string {
	var (
		wxErr       *weather.WeatherServiceError
		locErr      *weather.LocationServiceError
		apiErr      *llm.APIError
		unsupported *agent.UnsupportedToolError
		invalid     *agent.InvalidToolInputError
	)
	switch {
	case errors.Is(err, agent.ErrInvalidCoordinates):
		return "invalid_coordinates"
	case errors.As(err, &wxErr):
		return "weather_" + strings.ReplaceAll(wxErr.Kind.String(), " ", "_")
	case errors.As(err, &locErr):
		return "location_" + strings.ReplaceAll(locErr.Kind.String(), " ", "_")
	case errors.As(err, &apiErr):
		return "llm_api_error"
	case errors.Is(err, llm.ErrNoToolUseFound):
		return "no_tool_use_found"
	case errors.As(err, &unsupported):
		return "unsupported_tool"
	case errors.As(err, &invalid):
		return "invalid_tool_input"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal_error"
	}
}
