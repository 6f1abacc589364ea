package coordinator

import (
	"slices"
	"strings"
	"unicode"

	"fitcoach/actions"
)

// DefaultRoutes maps message keywords to the specialists that should see the
// message. The primary coach needs no keywords; it is always consulted.
var DefaultRoutes = map[actions.AgentType][]string{
	actions.AgentFormSafety: {
		"pain", "painful", "hurt", "hurts", "injury", "injured", "sharp", "dizzy", "chest",
		"form", "technique", "knee", "back", "shoulder", "strain", "sprain", "numb",
	},
	actions.AgentRecovery: {
		"sore", "soreness", "tired", "fatigue", "exhausted", "sleep", "rest", "recover",
		"recovery", "stretch", "stiff",
	},
	actions.AgentFitnessAction: {
		"workout", "exercise", "train", "training", "lift", "lifting", "run", "running",
		"squat", "deadlift", "bench", "reps", "sets", "session", "cardio",
	},
	actions.AgentNutrition: {
		"eat", "eating", "food", "meal", "meals", "diet", "protein", "calories", "carbs",
		"fast", "fasting", "water", "hydration", "breakfast", "dinner",
	},
	actions.AgentGoal: {
		"goal", "goals", "weight", "lose", "gain", "progress", "target", "measurement",
		"measurements", "muscle", "plateau",
	},
}

type Router struct {
	routes map[actions.AgentType][]string
}

// NewRouter returns a router over routes, or DefaultRoutes when routes is nil.
func NewRouter(routes map[actions.AgentType][]string) *Router {
	if routes == nil {
		routes = DefaultRoutes
	}
	return &Router{routes: routes}
}

// Route picks the specialists for a message, safety first.
func (r *Router) Route(message string) []actions.AgentType {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var out []actions.AgentType
	for _, t := range actions.AllAgentTypes {
		if t == actions.AgentPrimaryCoach {
			out = append(out, t)
			continue
		}
		for _, kw := range r.routes[t] {
			if slices.Contains(words, kw) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
