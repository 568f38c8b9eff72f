package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	// Packages
	tools "github.com/dileep-u-k/weather-agent/internal/tools"
	weather "github.com/dileep-u-k/weather-agent/internal/weather"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// TEST SET-UP

type stubFetcher struct {
	report *weather.Report
	err    error
	calls  [][2]float64
}

func (s *stubFetcher) FetchWeather(_ context.Context, lat, lon float64) (*weather.Report, error) {
	s.calls = append(s.calls, [2]float64{lat, lon})
	return s.report, s.err
}

var londonReport = &weather.Report{
	Temperature: 15.5,
	FeelsLike:   14.2,
	Condition:   "partly cloudy",
	Humidity:    72,
	WindSpeed:   3.6,
	Location:    "London",
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_manager_001(t *testing.T) {
	// One registered tool; definitions match the catalogue
	assert := assert.New(t)
	tm := tools.NewToolManager()
	assert.Zero(tm.ToolCount())

	tm.Register(tools.NewWeatherExecutor(&stubFetcher{}))
	tm.Register(tools.NewWeatherExecutor(&stubFetcher{}))
	assert.Equal(1, tm.ToolCount())
	assert.Equal(tools.Catalogue(), tm.GetDefinitions())
}

func Test_manager_002(t *testing.T) {
	// Unknown names are typed errors and run nothing
	assert := assert.New(t)
	fetcher := &stubFetcher{report: londonReport}
	tm := tools.NewToolManager()
	tm.Register(tools.NewWeatherExecutor(fetcher))

	_, err := tm.Execute(context.Background(), "get_time", json.RawMessage(`{}`))
	var unsupported *tools.UnsupportedToolError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal("get_time", unsupported.Name)
	assert.Empty(fetcher.calls)
}

func Test_manager_003(t *testing.T) {
	// get_weather returns the report as JSON
	assert := assert.New(t)
	fetcher := &stubFetcher{report: londonReport}
	tm := tools.NewToolManager()
	tm.Register(tools.NewWeatherExecutor(fetcher))

	out, err := tm.Execute(context.Background(), tools.WeatherToolName, json.RawMessage(`{"latitude": 51.5074, "longitude": -0.1278}`))
	require.NoError(t, err)
	assert.Equal(londonReport.String(), out)
	assert.JSONEq(`{"temperature":15.5,"feels_like":14.2,"condition":"partly cloudy","humidity":72,"wind_speed":3.6,"location":"London"}`, out)
	assert.Equal([][2]float64{{51.5074, -0.1278}}, fetcher.calls)
}

func Test_manager_004(t *testing.T) {
	// Schema violations never reach the fetcher
	assert := assert.New(t)
	fetcher := &stubFetcher{report: londonReport}
	exec := tools.NewWeatherExecutor(fetcher)

	_, err := exec.Execute(context.Background(), json.RawMessage(`{"latitude": 51.5}`))
	var invalid *tools.InvalidToolInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(tools.WeatherToolName, invalid.Name)
	assert.Empty(fetcher.calls)
}

func Test_manager_005(t *testing.T) {
	// Weather provider errors pass through unchanged
	assert := assert.New(t)
	wxErr := &weather.WeatherServiceError{Kind: weather.WeatherAuthenticationFailure, Status: 401}
	exec := tools.NewWeatherExecutor(&stubFetcher{err: wxErr})

	_, err := exec.Execute(context.Background(), json.RawMessage(`{"latitude": 1, "longitude": 2}`))
	assert.Same(wxErr, err)
	assert.True(errors.Is(err, wxErr))
}
