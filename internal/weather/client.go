// In file: internal/weather/client.go
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultWeatherURL is the OpenWeatherMap current weather endpoint.
	DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	// DefaultGeocodingURL is the OpenWeatherMap direct geocoding endpoint.
	DefaultGeocodingURL = "https://api.openweathermap.org/geo/1.0/direct"
	// DefaultTimeout bounds every request made by the client.
	DefaultTimeout = 10 * time.Second

	userAgent = "Weather-Agent/1.0"
)

// Client talks to the weather and geocoding providers.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	apiKey       string
	weatherURL   string
	geocodingURL string
	ipLookupURL  string
	httpClient   *http.Client
	cache        GeoCache
}

// Option configures a Client.
type Option func(*Client)

// WithWeatherURL overrides the current weather endpoint.
func WithWeatherURL(u string) Option {
	return func(c *Client) { c.weatherURL = u }
}

// WithGeocodingURL overrides the geocoding endpoint.
func WithGeocodingURL(u string) Option {
	return func(c *Client) { c.geocodingURL = u }
}

// WithIPLookupURL overrides the IP geolocation endpoint.
func WithIPLookupURL(u string) Option {
	return func(c *Client) { c.ipLookupURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithGeoCache enables caching of successful city lookups.
func WithGeoCache(cache GeoCache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates a weather client. The API key is required.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OpenWeatherMap API key cannot be empty")
	}
	c := &Client{
		apiKey:       apiKey,
		weatherURL:   DefaultWeatherURL,
		geocodingURL: DefaultGeocodingURL,
		ipLookupURL:  DefaultIPLookupURL,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ResolveCoordinates looks up a place name and returns its first match.
//
// A nil result with a nil error means the place is unknown, or the provider
// failed in a way other than a timeout (that failure is logged). A timeout
// is returned as a *LocationServiceError.
func (c *Client) ResolveCoordinates(ctx context.Context, city string) (*Coordinates, error) {
	if c.cache != nil {
		if coords, ok := c.cache.Get(ctx, city); ok {
			return coords, nil
		}
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	status, body, err := c.get(ctx, c.geocodingURL, params)
	if err != nil {
		if isTimeout(err) {
			return nil, &LocationServiceError{Kind: LocationTimeout, Query: city, Err: err}
		}
		log.Printf("Geocoding request for %q failed: %v", city, err)
		return nil, nil
	}
	if status < 200 || status > 299 {
		log.Printf("Geocoding for %q returned status %d", city, status)
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		log.Printf("Geocoding for %q returned invalid JSON", city)
		return nil, nil
	}
	matches := gjson.ParseBytes(body)
	if !matches.IsArray() || len(matches.Array()) == 0 {
		return nil, nil
	}

	first := matches.Array()[0]
	coords := &Coordinates{
		Latitude:  first.Get("lat").Float(),
		Longitude: first.Get("lon").Float(),
		Name:      first.Get("name").String(),
	}
	if c.cache != nil {
		c.cache.Set(ctx, city, coords)
	}
	return coords, nil
}

// FetchWeather returns the current weather at the given coordinates in
// metric units. It makes exactly one attempt.
func (c *Client) FetchWeather(ctx context.Context, latitude, longitude float64) (*Report, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	status, body, err := c.get(ctx, c.weatherURL, params)
	if err != nil {
		if isTimeout(err) {
			return nil, &WeatherServiceError{Kind: WeatherTimeout, Err: err}
		}
		return nil, &WeatherServiceError{Kind: WeatherUnknown, Err: err}
	}
	switch {
	case status == http.StatusUnauthorized:
		return nil, &WeatherServiceError{Kind: WeatherAuthenticationFailure, Status: status, Err: errors.New(string(body))}
	case status < 200 || status > 299:
		return nil, &WeatherServiceError{Kind: WeatherHTTPError, Status: status, Err: errors.New(string(body))}
	}
	return parseReport(body)
}

// parseReport maps the provider's nested payload onto a Report.
func parseReport(body []byte) (*Report, error) {
	if !gjson.ValidBytes(body) {
		return nil, &WeatherServiceError{Kind: WeatherUnknown, Err: errors.New("invalid JSON in weather response")}
	}
	data := gjson.ParseBytes(body)
	for _, path := range []string{"main.temp", "main.feels_like", "main.humidity", "weather.0.description", "wind.speed"} {
		if !data.Get(path).Exists() {
			return nil, &WeatherServiceError{Kind: WeatherUnknown, Err: fmt.Errorf("weather response is missing %s", path)}
		}
	}
	return &Report{
		Temperature: data.Get("main.temp").Float(),
		FeelsLike:   data.Get("main.feels_like").Float(),
		Condition:   data.Get("weather.0.description").String(),
		Humidity:    int(data.Get("main.humidity").Int()),
		WindSpeed:   data.Get("wind.speed").Float(),
		Location:    data.Get("name").String(),
	}, nil
}

// get performs a single GET and returns the status code and body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if params != nil {
		base.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
