package actions

import "fmt"

// priorityOffsets encodes the safety-first precedence between specialists.
// Lower final priority wins.
var priorityOffsets = map[AgentType]int{
	AgentFormSafety:    -2,
	AgentRecovery:      -1,
	AgentFitnessAction: 0,
	AgentPrimaryCoach:  1,
	AgentNutrition:     2,
	AgentGoal:          3,
}

// PriorityOffset returns the fixed offset added to actions produced by the
// given specialist.
func PriorityOffset(t AgentType) (int, error) {
	offset, ok := priorityOffsets[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAgentType, t)
	}
	return offset, nil
}

// Valid reports whether t is a known specialist.
func (t AgentType) Valid() bool {
	_, ok := priorityOffsets[t]
	return ok
}
