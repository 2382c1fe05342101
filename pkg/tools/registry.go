package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is an immutable, read-only collection of tools keyed by name.
// Build it once at startup; lookups after construction need no locking.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools.
// Duplicate or empty names are rejected.
func NewRegistry(toolList ...Tool) (*Registry, error) {
	tools := make(map[string]Tool, len(toolList))
	for _, tool := range toolList {
		if tool == nil {
			return nil, fmt.Errorf("tool cannot be nil")
		}
		name := tool.Name()
		if name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if _, exists := tools[name]; exists {
			return nil, fmt.Errorf("tool %s already registered", name)
		}
		tools[name] = tool
	}
	return &Registry{tools: tools}, nil
}

// Resolve retrieves a tool by name.
func (r *Registry) Resolve(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PromptDocumentation renders the documentation block for all registered
// tools, for inclusion in the system prompt.
func (r *Registry) PromptDocumentation() string {
	if len(r.tools) == 0 {
		return "No tools available"
	}

	var doc strings.Builder
	doc.WriteString("Available tools:\n")
	for _, name := range r.Names() {
		doc.WriteString(r.tools[name].PromptDocumentation())
		doc.WriteString("\n")
	}
	return doc.String()
}
