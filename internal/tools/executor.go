// In file: internal/tools/executor.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolExecutor is a tool the agent can run on the model's behalf.
type ToolExecutor interface {
	// Definition returns the descriptor sent to the LLM.
	Definition() Tool

	// Execute runs the tool with the model-generated arguments and returns
	// the tool_result content sent back to the LLM.
	Execute(ctx context.Context, arguments json.RawMessage) (string, error)
}

// UnsupportedToolError is returned when the model asks for a tool that is
// not registered.
type UnsupportedToolError struct {
	Name string
}

func (e *UnsupportedToolError) Error() string {
	return fmt.Sprintf("unsupported tool: %q", e.Name)
}

// InvalidToolInputError is returned when tool arguments do not match the
// tool's parameter schema.
type InvalidToolInputError struct {
	Name string
	Err  error
}

func (e *InvalidToolInputError) Error() string {
	return fmt.Sprintf("invalid input for tool %s: %v", e.Name, e.Err)
}

func (e *InvalidToolInputError) Unwrap() error {
	return e.Err
}
