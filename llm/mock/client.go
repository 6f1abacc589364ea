package mock

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"fitcoach/actions"
	"fitcoach/llm"
	"fitcoach/tools"
)

type reply struct {
	tool       string
	message    string
	confidence float64
}

// replies is keyed by the agent type named in the system prompt. Messages
// carry keywords so the action pipeline has something to rank offline.
var replies = map[actions.AgentType]reply{
	actions.AgentFormSafety:    {message: "Stop if the pain is sharp and see a physio before training through it. Modify the workout to a lighter load until it settles.", confidence: 0.85},
	actions.AgentRecovery:      {tool: "workout_log_get", message: "Your recent sessions were heavy. Take a rest day, then stretch and prioritise sleep.", confidence: 0.75},
	actions.AgentFitnessAction: {tool: "schedule_get", message: "Your next workout is on the schedule. Start the session with a proper warm-up and log your sets.", confidence: 0.7},
	actions.AgentPrimaryCoach:  {tool: "schedule_get", message: "Nice work staying consistent. Check your schedule for the rest of the week.", confidence: 0.6},
	actions.AgentNutrition:     {tool: "fasting_get", message: "Drink water through the day and log each meal with enough protein.", confidence: 0.65},
	actions.AgentGoal:          {tool: "measurements_get", message: "Weigh in once a week and review your progress toward your goal.", confidence: 0.6},
}

// LLMClient is a deterministic stand-in for a hosted model. Each specialist
// asks for its home tool once, then answers in the JSON reply format.
type LLMClient struct{}

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

func (m *LLMClient) Invoke(_ context.Context, prompt llm.Prompt) (llm.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "provider", "mock", "messages_len", len(prompt.Messages))

	agent, r := lookup(prompt.System())

	// Phase 1: fetch the home tool's data if it is offered and not fetched yet.
	if r.tool != "" && offers(prompt, r.tool) && !prompt.HasToolResult(r.tool) {
		slog.Info("LLM_CLIENT: Returning tool call", "agent", agent, "tool", r.tool)
		return llm.Response{ToolCalls: []tools.Call{
			{Name: r.tool, Input: map[string]any{}, ToolUseID: "mock-" + r.tool},
		}}, nil
	}

	// Phase 2: final reply.
	b, err := json.Marshal(map[string]any{"message": r.message, "confidence": r.confidence})
	if err != nil {
		return llm.Response{}, err
	}
	slog.Info("LLM_CLIENT: Returning final reply", "agent", agent)
	return llm.Response{Content: string(b)}, nil
}

func lookup(system string) (actions.AgentType, reply) {
	for _, t := range actions.AllAgentTypes {
		if strings.Contains(system, string(t)) {
			return t, replies[t]
		}
	}
	return "", reply{message: "Keep going, you're doing well.", confidence: 0.5}
}

func offers(p llm.Prompt, tool string) bool {
	for _, t := range p.Tools {
		if t.Name == tool {
			return true
		}
	}
	return false
}
