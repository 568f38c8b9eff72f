// In file: internal/weather/types.go

// Package weather wraps the OpenWeatherMap current-weather and geocoding
// endpoints, plus an IP geolocation lookup, behind typed results and
// classified errors.
package weather

import (
	"encoding/json"
	"fmt"
)

// Coordinates is a geographic position, optionally named when it was
// resolved from a place name or an IP address.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Report is the flattened current-weather observation for one location.
// Temperatures are Celsius and wind speed is m/s (metric units).
type Report struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Location    string  `json:"location"`
}

// String renders the report as the JSON object handed back to the LLM as
// the tool result.
func (r Report) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("temperature=%g feels_like=%g condition=%q humidity=%d wind_speed=%g location=%q",
			r.Temperature, r.FeelsLike, r.Condition, r.Humidity, r.WindSpeed, r.Location)
	}
	return string(data)
}
