// In file: internal/tools/types.go

// Package tools defines the provider-agnostic description of the single tool
// the weather agent exposes to an LLM. The same values are translated into
// the Anthropic, Gemini and OpenAI tool formats by the llm package.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool defines the schema for a function that can be described to an LLM.
// This is the information sent *to* the model to make it aware of a tool.
type Tool struct {
	// Type is always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is the name the model uses to call the function (e.g. "get_weather").
	Name string `json:"name"`
	// Description is what the model reads to decide when to call the tool.
	Description string `json:"description"`
	// Parameters defines the arguments the function accepts.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema needed to describe tool parameters.
type JSONSchema struct {
	// Type is the data type of this node ("object", "string", "number").
	Type string `json:"type"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Properties describes the members of an object node.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Required lists the mandatory members of an object node.
	Required []string `json:"required,omitempty"`
}

// NewFunctionTool builds a Tool of type "function".
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
