// In file: internal/tools/manager.go
package tools

import (
	"context"
	"encoding/json"
)

// ToolManager holds a registry of the tools offered to the LLM.
type ToolManager struct {
	tools map[string]ToolExecutor
	order []string
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool to the registry, replacing any tool with the same
// name.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	if _, exists := tm.tools[name]; !exists {
		tm.order = append(tm.order, name)
	}
	tm.tools[name] = tool
}

// GetDefinitions returns the registered descriptors in registration order.
func (tm *ToolManager) GetDefinitions() []Tool {
	defs := make([]Tool, 0, len(tm.order))
	for _, name := range tm.order {
		defs = append(defs, tm.tools[name].Definition())
	}
	return defs
}

// Execute runs a tool by name. An unknown name is an *UnsupportedToolError.
func (tm *ToolManager) Execute(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	tool, ok := tm.tools[name]
	if !ok {
		return "", &UnsupportedToolError{Name: name}
	}
	return tool.Execute(ctx, arguments)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}
