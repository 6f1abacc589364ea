package actions

import "errors"

// AgentType identifies the specialist that produced a reply.
type AgentType string

const (
	AgentFormSafety    AgentType = "form_safety"
	AgentRecovery      AgentType = "recovery"
	AgentFitnessAction AgentType = "fitness_action"
	AgentPrimaryCoach  AgentType = "primary_coach"
	AgentNutrition     AgentType = "nutrition"
	AgentGoal          AgentType = "goal"
)

// AllAgentTypes lists every known specialist in safety-first order.
var AllAgentTypes = []AgentType{
	AgentFormSafety,
	AgentRecovery,
	AgentFitnessAction,
	AgentPrimaryCoach,
	AgentNutrition,
	AgentGoal,
}

var ErrUnknownAgentType = errors.New("unknown agent type")

const (
	// MaxActions caps the number of suggested actions returned to the app.
	MaxActions = 5

	// DefaultBasePriority applies when a candidate does not declare one.
	DefaultBasePriority = 5
)

// AgentResponse is one specialist's reply to the user message.
type AgentResponse struct {
	AgentType  AgentType `json:"agent_type"`
	Message    string    `json:"message"`
	Confidence float64   `json:"confidence"`
}

// ActionItem is a suggested quick action rendered under the chat reply.
type ActionItem struct {
	Type            string         `json:"type"`
	Label           string         `json:"label"`
	Icon            string         `json:"icon"`
	Color           string         `json:"color"`
	Priority        int            `json:"priority"`
	Confidence      float64        `json:"confidence"`
	AgentConfidence float64        `json:"agent_confidence"`
	Source          string         `json:"source"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Candidate is a raw action proposed by an Extractor. Priority and
// Confidence are optional; nil means the extractor did not declare one.
type Candidate struct {
	Type       string
	Label      string
	Icon       string
	Color      string
	Priority   *int
	Confidence *float64
	Metadata   map[string]any
}

// ConversationContext carries what an extractor may need beyond the reply text.
type ConversationContext struct {
	UserID          string
	UserMessage     string
	ConsultedAgents []AgentType
}
