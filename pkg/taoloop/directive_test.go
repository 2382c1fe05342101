package taoloop

import (
	"reflect"
	"testing"
)

func TestParseFinal(t *testing.T) {
	d := Parse("Thought: I have everything I need.\nFinal: 72°F in Tokyo")
	if d.Kind != DirectiveFinal {
		t.Fatalf("Kind = %s, want Final", d.Kind)
	}
	if d.Answer != "72°F in Tokyo" {
		t.Errorf("Answer = %q", d.Answer)
	}
}

func TestParseFinalBeatsAction(t *testing.T) {
	raw := "Action: get_weather\nArgs: {\"lat\": 1}\nFinal: 72°F in Tokyo"
	d := Parse(raw)
	if d.Kind != DirectiveFinal {
		t.Fatalf("Kind = %s, want Final (Final takes precedence)", d.Kind)
	}
	if d.Answer != "72°F in Tokyo" {
		t.Errorf("Answer = %q", d.Answer)
	}
}

func TestParseAction(t *testing.T) {
	d := Parse("Thought: need the weather.\nAction: get_weather\nArgs: {\"lat\": 35.6, \"lon\": 139.7}")
	if d.Kind != DirectiveAction {
		t.Fatalf("Kind = %s, want Action", d.Kind)
	}
	if d.ToolName != "get_weather" {
		t.Errorf("ToolName = %q", d.ToolName)
	}
	want := map[string]any{"lat": 35.6, "lon": 139.7}
	if !reflect.DeepEqual(d.Args, want) {
		t.Errorf("Args = %v, want %v", d.Args, want)
	}
}

func TestParseActionToolNameTrimmed(t *testing.T) {
	d := Parse("Action:   geocode_location  \nArgs: {\"name\": \"Paris\"}")
	if d.ToolName != "geocode_location" {
		t.Errorf("ToolName = %q", d.ToolName)
	}
}

func TestParseInvalidArgsJSON(t *testing.T) {
	raw := "Action: get_weather\nArgs: {not valid json"
	d := Parse(raw)
	if d.Kind != DirectiveMalformed {
		t.Fatalf("Kind = %s, want Malformed", d.Kind)
	}
	if d.Detail == "" || d.Detail == raw {
		t.Errorf("Detail should carry a parse error, got %q", d.Detail)
	}
}

func TestParseMissingMarkers(t *testing.T) {
	raw := "I think the weather in Tokyo is probably nice today."
	d := Parse(raw)
	if d.Kind != DirectiveMalformed {
		t.Fatalf("Kind = %s, want Malformed", d.Kind)
	}
	if d.Detail != raw {
		t.Errorf("Detail = %q, want full raw text", d.Detail)
	}
}

func TestParseActionWithoutArgsIsMalformed(t *testing.T) {
	d := Parse("Action: get_weather")
	if d.Kind != DirectiveMalformed {
		t.Fatalf("Kind = %s, want Malformed", d.Kind)
	}
}

func TestParseIdempotent(t *testing.T) {
	inputs := []string{
		"Final: done",
		"Action: get_weather\nArgs: {\"lat\": 1, \"lon\": 2}",
		"Action: x\nArgs: {broken",
		"no markers at all",
	}
	for _, raw := range inputs {
		first := Parse(raw)
		second := Parse(raw)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Parse(%q) not idempotent: %+v vs %+v", raw, first, second)
		}
	}
}
