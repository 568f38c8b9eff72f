// In file: internal/agent/errors.go
package agent

import (
	"errors"

	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// ErrInvalidCoordinates is returned when a query carries a NaN or infinite
// coordinate.
var ErrInvalidCoordinates = errors.New("latitude and longitude must be finite numbers")

// UnsupportedToolError is returned when the model asks for a tool other
// than get_weather.
type UnsupportedToolError = tools.UnsupportedToolError

// InvalidToolInputError is returned when get_weather arguments do not match
// the tool's parameter schema.
type InvalidToolInputError = tools.InvalidToolInputError
