package actions

import (
	"context"
	"strings"
	"unicode"
)

const (
	homeAgentBoost    = 0.1
	extraHitBoost     = 0.05
	maxRuleConfidence = 0.95
)

// Rule maps reply keywords to a suggested action.
type Rule struct {
	Type       string
	Label      string
	Icon       string
	Color      string
	Priority   int
	Confidence float64
	Home       AgentType
	Keywords   []string
}

// DefaultRules is the action table used by the coaching chat.
var DefaultRules = []Rule{
	{Type: "consult_professional", Label: "Talk to a professional", Icon: "stethoscope", Color: "#D64545", Priority: 2, Confidence: 0.6, Home: AgentFormSafety, Keywords: []string{"doctor", "physio", "physiotherapist", "medical", "professional"}},
	{Type: "modify_workout", Label: "Adjust today's workout", Icon: "tune", Color: "#E8833A", Priority: 4, Confidence: 0.55, Home: AgentFormSafety, Keywords: []string{"modify", "lighter", "reduce", "swap", "alternative", "form"}},
	{Type: "rest_day", Label: "Take a rest day", Icon: "bed", Color: "#6C8EBF", Priority: 4, Confidence: 0.5, Home: AgentRecovery, Keywords: []string{"rest", "break", "pause"}},
	{Type: "recovery_session", Label: "Start a recovery session", Icon: "self_improvement", Color: "#5BA58B", Priority: 5, Confidence: 0.5, Home: AgentRecovery, Keywords: []string{"stretch", "stretching", "mobility", "foam", "recovery", "sleep"}},
	{Type: "start_workout", Label: "Start workout", Icon: "fitness_center", Color: "#2E86DE", Priority: 5, Confidence: 0.5, Home: AgentFitnessAction, Keywords: []string{"workout", "session", "train", "training", "exercise"}},
	{Type: "log_workout", Label: "Log a workout", Icon: "edit_note", Color: "#2E86DE", Priority: 6, Confidence: 0.45, Home: AgentFitnessAction, Keywords: []string{"log", "record", "track", "sets", "reps"}},
	{Type: "view_schedule", Label: "View schedule", Icon: "calendar_month", Color: "#8E44AD", Priority: 5, Confidence: 0.5, Home: AgentPrimaryCoach, Keywords: []string{"schedule", "plan", "calendar", "week", "tomorrow"}},
	{Type: "log_meal", Label: "Log a meal", Icon: "restaurant", Color: "#27AE60", Priority: 5, Confidence: 0.5, Home: AgentNutrition, Keywords: []string{"meal", "protein", "calorie", "calories", "eat", "food", "carbs"}},
	{Type: "log_water", Label: "Log water", Icon: "water_drop", Color: "#3498DB", Priority: 6, Confidence: 0.45, Home: AgentNutrition, Keywords: []string{"water", "hydrate", "hydration", "drink"}},
	{Type: "start_fast", Label: "Start a fast", Icon: "timer", Color: "#F39C12", Priority: 6, Confidence: 0.45, Home: AgentNutrition, Keywords: []string{"fast", "fasting", "intermittent"}},
	{Type: "log_measurement", Label: "Log measurements", Icon: "straighten", Color: "#16A085", Priority: 6, Confidence: 0.45, Home: AgentGoal, Keywords: []string{"weigh", "weight", "measure", "measurement", "waist"}},
	{Type: "view_progress", Label: "View progress", Icon: "trending_up", Color: "#16A085", Priority: 6, Confidence: 0.45, Home: AgentGoal, Keywords: []string{"progress", "trend", "improvement", "milestone"}},
	{Type: "set_goal", Label: "Set a goal", Icon: "flag", Color: "#C0392B", Priority: 6, Confidence: 0.45, Home: AgentGoal, Keywords: []string{"goal", "target", "aim"}},
}

// KeywordExtractor suggests actions whose keywords appear in the reply.
type KeywordExtractor struct {
	rules []Rule
}

// NewKeywordExtractor returns an extractor over rules, or DefaultRules when
// none are given.
func NewKeywordExtractor(rules ...Rule) *KeywordExtractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &KeywordExtractor{rules: rules}
}

func (e *KeywordExtractor) Extract(_ context.Context, message string, agentType AgentType, _ ConversationContext) ([]Candidate, error) {
	words := wordSet(message)
	if len(words) == 0 {
		return nil, nil
	}

	var out []Candidate
	for _, r := range e.rules {
		var hits []string
		for _, kw := range r.Keywords {
			if words[kw] {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}

		confidence := r.Confidence + extraHitBoost*float64(len(hits)-1)
		if r.Home == agentType {
			confidence += homeAgentBoost
		}
		confidence = min(confidence, maxRuleConfidence)
		priority := r.Priority

		out = append(out, Candidate{
			Type:       r.Type,
			Label:      r.Label,
			Icon:       r.Icon,
			Color:      r.Color,
			Priority:   &priority,
			Confidence: &confidence,
			Metadata:   map[string]any{"keywords": hits},
		})
	}
	return out, nil
}

func wordSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
