package fitcoach

import (
	"context"

	"fitcoach/actions"
	"fitcoach/tools"
)

// SafetyNotifier is told when the form/safety specialist is confident the
// user is at risk.
type SafetyNotifier interface {
	PostSafetyAlert(ctx context.Context, userID string, resp actions.AgentResponse) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}
