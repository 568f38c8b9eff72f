// In file: internal/tools/weather_tool.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dileep-u-k/weather-agent/internal/weather"
)

// WeatherToolName is the only tool name the agent recognises.
const WeatherToolName = "get_weather"

// weatherTool is built once; Catalogue hands out copies of the same value so
// the initial call and the tool-result call of one exchange describe the
// tool identically.
var weatherTool = NewFunctionTool(
	WeatherToolName,
	"Get current weather information for a specific location using coordinates",
	JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"latitude": {
				Type:        "number",
				Description: "Latitude of the location",
			},
			"longitude": {
				Type:        "number",
				Description: "Longitude of the location",
			},
		},
		Required: []string{"latitude", "longitude"},
	},
)

// WeatherTool returns the get_weather descriptor.
func WeatherTool() Tool {
	return weatherTool
}

// Catalogue returns the tool list attached to every LLM request.
func Catalogue() []Tool {
	return []Tool{weatherTool}
}

// WeatherInput is the decoded argument object of a get_weather call.
type WeatherInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParseWeatherInput validates raw get_weather arguments against the tool's
// schema and decodes them.
func ParseWeatherInput(raw json.RawMessage) (WeatherInput, error) {
	var in WeatherInput
	if err := ValidateInput(weatherTool, raw); err != nil {
		return in, err
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("invalid arguments for %s: %w", WeatherToolName, err)
	}
	if math.IsNaN(in.Latitude) || math.IsInf(in.Latitude, 0) || math.IsNaN(in.Longitude) || math.IsInf(in.Longitude, 0) {
		return in, fmt.Errorf("invalid arguments for %s: coordinates must be finite", WeatherToolName)
	}
	return in, nil
}

// WeatherFetcher is the weather provider behind get_weather.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, latitude, longitude float64) (*weather.Report, error)
}

var _ WeatherFetcher = (*weather.Client)(nil)

// WeatherExecutor runs get_weather against a WeatherFetcher.
type WeatherExecutor struct {
	fetcher WeatherFetcher
}

var _ ToolExecutor = (*WeatherExecutor)(nil)

func NewWeatherExecutor(fetcher WeatherFetcher) *WeatherExecutor {
	return &WeatherExecutor{fetcher: fetcher}
}

func (e *WeatherExecutor) Definition() Tool {
	return weatherTool
}

// Execute returns the report as JSON. Weather provider errors are returned
// unchanged.
func (e *WeatherExecutor) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	input, err := ParseWeatherInput(arguments)
	if err != nil {
		return "", &InvalidToolInputError{Name: WeatherToolName, Err: err}
	}
	report, err := e.fetcher.FetchWeather(ctx, input.Latitude, input.Longitude)
	if err != nil {
		return "", err
	}
	return report.String(), nil
}
