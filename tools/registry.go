package tools

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"fitcoach/storage"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the fitness data tools over the given store. now may be
// nil, in which case time.Now is used.
func NewRegistry(store storage.Store, now func() time.Time) (*Registry, error) {
	if store == nil {
		return nil, errors.New("tools: nil store")
	}
	if now == nil {
		now = time.Now
	}

	tools := map[string]Tool{}
	for _, t := range []Tool{
		NewScheduleGet(store, now),
		NewWorkoutLogGet(store),
		NewMeasurementsGet(store),
		NewFastingGet(store, now),
	} {
		tools[t.Name()] = t
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools sorted by name so prompts are stable.
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
