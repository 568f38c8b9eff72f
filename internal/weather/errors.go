// In file: internal/weather/errors.go
package weather

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// LocationErrorKind classifies a failed coordinate lookup.
type LocationErrorKind int

const (
	// LocationTimeout means the geocoding or IP lookup exceeded its bound.
	LocationTimeout LocationErrorKind = iota + 1
)

func (k LocationErrorKind) String() string {
	switch k {
	case LocationTimeout:
		return "timeout"
	}
	return fmt.Sprintf("location error %d", int(k))
}

// LocationServiceError is returned when a coordinate lookup fails in a way
// the caller must see. Ordinary failures (not found, bad status) are
// reported as an absent result instead.
type LocationServiceError struct {
	Kind  LocationErrorKind
	Query string
	Err   error
}

func (e *LocationServiceError) Error() string {
	return fmt.Sprintf("location service %s for %q: %v", e.Kind, e.Query, e.Err)
}

func (e *LocationServiceError) Unwrap() error {
	return e.Err
}

// WeatherErrorKind classifies a failed weather call.
type WeatherErrorKind int

const (
	WeatherTimeout WeatherErrorKind = iota + 1
	WeatherAuthenticationFailure
	WeatherHTTPError
	WeatherUnknown
)

func (k WeatherErrorKind) String() string {
	switch k {
	case WeatherTimeout:
		return "timeout"
	case WeatherAuthenticationFailure:
		return "authentication failure"
	case WeatherHTTPError:
		return "http error"
	case WeatherUnknown:
		return "unknown"
	}
	return fmt.Sprintf("weather error %d", int(k))
}

// WeatherServiceError is returned by FetchWeather. Status is set for
// WeatherAuthenticationFailure and WeatherHTTPError; Err carries the cause.
type WeatherServiceError struct {
	Kind   WeatherErrorKind
	Status int
	Err    error
}

func (e *WeatherServiceError) Error() string {
	switch e.Kind {
	case WeatherTimeout:
		return "weather service timed out"
	case WeatherAuthenticationFailure:
		return fmt.Sprintf("weather service rejected the API key (status %d)", e.Status)
	case WeatherHTTPError:
		return fmt.Sprintf("weather service returned status %d", e.Status)
	}
	return fmt.Sprintf("weather service error: %v", e.Err)
}

func (e *WeatherServiceError) Unwrap() error {
	return e.Err
}

// isTimeout reports whether err is a deadline or client timeout, never
// conflating it with other transport failures.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
