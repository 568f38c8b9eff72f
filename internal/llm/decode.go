// In file: internal/llm/decode.go
package llm

import (
	"encoding/json"
	"errors"
)

// ErrNoToolUseFound is returned when a response signalled a tool call but
// carries no tool-use block.
var ErrNoToolUseFound = errors.New("no tool use block found")

// ToolInvocation is a tool call extracted from a response.
type ToolInvocation struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// DecodeText returns the text of the first text block, or "" when the
// content has none.
func DecodeText(blocks []ContentBlock) string {
	for _, block := range blocks {
		switch b := block.(type) {
		case TextBlock:
			return b.Text
		case *TextBlock:
			if b != nil {
				return b.Text
			}
		case ToolUseBlock, *ToolUseBlock, ToolResultBlock, *ToolResultBlock, RawBlock, *RawBlock:
			continue
		}
	}
	return ""
}

// DecodeToolInvocation returns the first tool-use block as an invocation.
func DecodeToolInvocation(blocks []ContentBlock) (ToolInvocation, error) {
	for _, block := range blocks {
		switch b := block.(type) {
		case ToolUseBlock:
			return ToolInvocation{ID: b.ID, Name: b.Name, Input: b.Input}, nil
		case *ToolUseBlock:
			if b != nil {
				return ToolInvocation{ID: b.ID, Name: b.Name, Input: b.Input}, nil
			}
		case TextBlock, *TextBlock, ToolResultBlock, *ToolResultBlock, RawBlock, *RawBlock:
			continue
		}
	}
	return ToolInvocation{}, ErrNoToolUseFound
}
