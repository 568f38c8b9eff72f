package llm

import (
	"encoding/json"
	"testing"

	// Packages
	tools "github.com/dileep-u-k/weather-agent/internal/tools"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	"github.com/google/generative-ai-go/genai"
)

func Test_gemini_001(t *testing.T) {
	_, err := NewGeminiClient("")
	assert.Error(t, err)
}

func Test_gemini_002(t *testing.T) {
	assert := assert.New(t)
	geminiTools := toGeminiTools(tools.Catalogue())
	require.Len(t, geminiTools, 1)
	require.Len(t, geminiTools[0].FunctionDeclarations, 1)
	decl := geminiTools[0].FunctionDeclarations[0]
	assert.Equal(tools.WeatherToolName, decl.Name)
	assert.Equal(genai.TypeObject, decl.Parameters.Type)
	assert.Equal(genai.TypeNumber, decl.Parameters.Properties["latitude"].Type)
	assert.ElementsMatch([]string{"latitude", "longitude"}, decl.Parameters.Required)
}

func Test_gemini_003(t *testing.T) {
	assert := assert.New(t)
	history := []Message{
		NewUserMessage("Weather?"),
		{Role: RoleAssistant, Content: []ContentBlock{
			ToolUseBlock{ID: "gemini-toolcall-get_weather", Name: "get_weather", Input: json.RawMessage(`{"latitude":1.5,"longitude":2}`)},
		}},
		{Role: RoleUser, Content: []ContentBlock{
			ToolResultBlock{ToolUseID: "gemini-toolcall-get_weather", Content: `{"temperature":20}`},
		}},
	}
	contents, err := toGeminiContents(history)
	require.NoError(t, err)
	require.Len(t, contents, 3)
	assert.Equal("user", contents[0].Role)
	assert.Equal(genai.Text("Weather?"), contents[0].Parts[0])
	assert.Equal("model", contents[1].Role)
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	assert.Equal("get_weather", call.Name)
	assert.Equal(1.5, call.Args["latitude"])
	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	require.True(t, ok)
	assert.Equal("get_weather", resp.Name)
	assert.Equal(float64(20), resp.Response["temperature"])
}

func Test_gemini_004(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(map[string]any{"content": "plain"}, toolResponseMap(ToolResultBlock{Content: "plain"}))
	assert.Equal(map[string]any{"error": "boom"}, toolResponseMap(ToolResultBlock{Content: "boom", IsError: true}))
}

func Test_gemini_005(t *testing.T) {
	assert := assert.New(t)
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Checking."),
				genai.FunctionCall{Name: "get_weather", Args: map[string]any{"latitude": 51.5, "longitude": -0.12}},
			}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15},
	}
	result, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(StopReasonToolUse, result.StopReason)
	assert.Equal("Checking.", DecodeText(result.Content))
	inv, err := DecodeToolInvocation(result.Content)
	require.NoError(t, err)
	assert.Equal("gemini-toolcall-get_weather", inv.ID)
	assert.JSONEq(`{"latitude":51.5,"longitude":-0.12}`, string(inv.Input))
	assert.Equal(15, result.Usage.TotalTokens)
}

func Test_gemini_006(t *testing.T) {
	assert := assert.New(t)
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Sunny.")}},
		}},
	}
	result, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(StopReasonEndTurn, result.StopReason)
	assert.Equal("Sunny.", DecodeText(result.Content))

	_, err = parseGeminiResponse(&genai.GenerateContentResponse{})
	assert.Error(err)
}

func Test_gemini_007(t *testing.T) {
	// pointer blocks convert; provider-specific raw blocks are skipped
	assert := assert.New(t)
	history := []Message{
		NewUserMessage("Weather?"),
		{Role: RoleAssistant, Content: []ContentBlock{
			&RawBlock{Type: "thinking", Data: json.RawMessage(`{"type":"thinking","thinking":"..."}`)},
			&ToolUseBlock{ID: "gemini-toolcall-get_weather", Name: "get_weather", Input: json.RawMessage(`{"latitude":1,"longitude":2}`)},
		}},
		{Role: RoleUser, Content: []ContentBlock{
			&ToolResultBlock{ToolUseID: "gemini-toolcall-get_weather", Content: `{"temperature":20}`},
		}},
	}
	contents, err := toGeminiContents(history)
	require.NoError(t, err)
	require.Len(t, contents, 3)
	require.Len(t, contents[1].Parts, 1)
	_, ok := contents[1].Parts[0].(genai.FunctionCall)
	assert.True(ok)
	_, ok = contents[2].Parts[0].(genai.FunctionResponse)
	assert.True(ok)

	var nilBlock *TextBlock
	_, err = toGeminiContents([]Message{{Role: RoleUser, Content: []ContentBlock{nilBlock}}})
	assert.Error(err)
}
