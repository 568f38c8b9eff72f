// In file: internal/llm/constants.go
package llm

import "time"

// Constants shared by the provider clients. Every call is a single attempt.
const (
	// DefaultTimeout bounds each LLM HTTP call.
	DefaultTimeout = 30 * time.Second

	defaultMaxTokens = 1024
)
