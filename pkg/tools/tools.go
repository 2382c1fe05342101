// Package tools provides the tool implementations and registry used by the
// reasoning loop. Tools never return Go errors across the boundary: every
// invocation yields a tagged outcome, and "no result" conditions surface as
// graceful error values inside the result map.
package tools

import (
	"context"
	"fmt"

	"agentloop/pkg/restclient"
)

// Result is the JSON-compatible payload a tool hands back to the loop.
type Result = map[string]any

// Tool defines the interface for loop-callable tools.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// PromptDocumentation returns formatted tool documentation for prompts.
	PromptDocumentation() string

	// Exec executes the tool with the given arguments.
	Exec(ctx context.Context, args map[string]any) restclient.Outcome[Result]
}

// badArgs builds the failure outcome for argument validation problems.
func badArgs(format string, a ...any) restclient.Outcome[Result] {
	return restclient.Failure[Result](restclient.FailureDataFormat, 0, fmt.Sprintf(format, a...))
}

// floatArg extracts a required numeric argument. JSON numbers decode as
// float64 but integer literals may arrive as int from hand-built maps.
func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// stringArg extracts a required non-empty string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
