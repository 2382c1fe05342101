package tools

import (
	"context"

	"agentloop/pkg/restclient"
)

// ToolConvertCToF is the constant name for the temperature conversion tool.
const ToolConvertCToF = "convert_c_to_f"

// ConvertTool converts Celsius to Fahrenheit. Purely local, no service call.
type ConvertTool struct{}

// NewConvertTool creates a temperature conversion tool.
func NewConvertTool() *ConvertTool {
	return &ConvertTool{}
}

// Name returns the tool name.
func (t *ConvertTool) Name() string {
	return ToolConvertCToF
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *ConvertTool) PromptDocumentation() string {
	return `- convert_c_to_f: convert Celsius to Fahrenheit. Args: {"c": <number>}. Returns the Fahrenheit value.`
}

// Exec converts the given Celsius value.
func (t *ConvertTool) Exec(_ context.Context, args map[string]any) restclient.Outcome[Result] {
	c, ok := floatArg(args, "c")
	if !ok {
		return badArgs("convert_c_to_f: c is required and must be a number")
	}
	return restclient.Success(Result{"fahrenheit": c*9/5 + 32})
}
