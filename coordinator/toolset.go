package coordinator

import (
	"fmt"
	"slices"

	"fitcoach"
	"fitcoach/tools"
)

// toolset narrows the registry to the tools one specialist may call.
type toolset struct {
	tp      fitcoach.ToolProvider
	allowed []string
}

func (s toolset) GetTools() []tools.Tool {
	var out []tools.Tool
	for _, t := range s.tp.GetTools() {
		if slices.Contains(s.allowed, t.Name()) {
			out = append(out, t)
		}
	}
	return out
}

func (s toolset) GetTool(name string) (tools.Tool, error) {
	if !slices.Contains(s.allowed, name) {
		return nil, fmt.Errorf("tool %q is not available to this specialist", name)
	}
	return s.tp.GetTool(name)
}
