// Package taoloop implements the Thought-Action-Observation control loop: a
// sequential state machine that alternates between asking a language model for
// the next step and executing the tool it names, until the model produces a
// final answer or the iteration budget runs out.
package taoloop

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Directive markers recognized in model replies.
const (
	MarkerThought = "Thought:"
	MarkerAction  = "Action:"
	MarkerArgs    = "Args:"
	MarkerFinal   = "Final:"
)

// DirectiveKind categorizes what the model told the loop to do.
type DirectiveKind int

const (
	// DirectiveFinal means the model produced its final answer.
	DirectiveFinal DirectiveKind = iota

	// DirectiveAction means the model requested a tool invocation.
	DirectiveAction

	// DirectiveMalformed means the reply did not follow the marker protocol
	// or its Args JSON failed to parse.
	DirectiveMalformed
)

// String returns human-readable name for DirectiveKind.
func (k DirectiveKind) String() string {
	switch k {
	case DirectiveFinal:
		return "Final"
	case DirectiveAction:
		return "Action"
	case DirectiveMalformed:
		return "Malformed"
	default:
		return fmt.Sprintf("DirectiveKind(%d)", k)
	}
}

// Directive is the parsed form of one model reply.
type Directive struct {
	// Args holds the parsed tool arguments. Only valid for DirectiveAction.
	Args map[string]any

	// Answer is the final answer text. Only valid for DirectiveFinal.
	Answer string

	// ToolName is the requested tool. Only valid for DirectiveAction.
	ToolName string

	// Detail carries the parse error or raw text for DirectiveMalformed.
	Detail string

	Kind DirectiveKind
}

// Parse scans a raw model reply for directive markers. Pure and idempotent.
//
// Precedence: a "Final:" marker anywhere wins over any "Action:" in the same
// reply. An action requires both "Action:" and "Args:"; anything else is
// malformed. No semantic validation of tool names or argument types happens
// here.
func Parse(raw string) Directive {
	if idx := strings.Index(raw, MarkerFinal); idx >= 0 {
		return Directive{
			Kind:   DirectiveFinal,
			Answer: strings.TrimSpace(raw[idx+len(MarkerFinal):]),
		}
	}

	actionIdx := strings.Index(raw, MarkerAction)
	argsIdx := strings.Index(raw, MarkerArgs)
	if actionIdx < 0 || argsIdx < 0 {
		return Directive{Kind: DirectiveMalformed, Detail: raw}
	}

	name := segmentAfter(raw, actionIdx+len(MarkerAction))
	argsText := strings.TrimSpace(raw[argsIdx+len(MarkerArgs):])

	var args map[string]any
	if err := json.Unmarshal([]byte(argsText), &args); err != nil {
		return Directive{
			Kind:   DirectiveMalformed,
			Detail: fmt.Sprintf("invalid args JSON %q: %v", argsText, err),
		}
	}

	return Directive{
		Kind:     DirectiveAction,
		ToolName: name,
		Args:     args,
	}
}

// segmentAfter returns the trimmed substring starting at pos and ending at the
// next marker or newline, whichever comes first.
func segmentAfter(raw string, pos int) string {
	rest := raw[pos:]
	end := len(rest)
	for _, stop := range []string{"\n", MarkerThought, MarkerAction, MarkerArgs, MarkerFinal} {
		if i := strings.Index(rest, stop); i >= 0 && i < end {
			end = i
		}
	}
	return strings.TrimSpace(rest[:end])
}
