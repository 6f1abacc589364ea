package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordExtractor_Extract(t *testing.T) {
	ext := NewKeywordExtractor()

	tests := []struct {
		name          string
		message       string
		agent         AgentType
		expectedTypes []string
	}{
		{
			name:          "empty reply",
			message:       "",
			agent:         AgentPrimaryCoach,
			expectedTypes: nil,
		},
		{
			name:          "no keywords",
			message:       "Great job today!",
			agent:         AgentPrimaryCoach,
			expectedTypes: nil,
		},
		{
			name:          "schedule and workout",
			message:       "Check your schedule: tomorrow's workout is legs.",
			agent:         AgentPrimaryCoach,
			expectedTypes: []string{"start_workout", "view_schedule"},
		},
		{
			name:          "punctuation and case are ignored",
			message:       "REST, then STRETCH.",
			agent:         AgentRecovery,
			expectedTypes: []string{"rest_day", "recovery_session"},
		},
		{
			name:          "keywords match whole words only",
			message:       "Breakfast was fine",
			agent:         AgentNutrition,
			expectedTypes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ext.Extract(context.Background(), tt.message, tt.agent, ConversationContext{})
			require.NoError(t, err)

			var types []string
			for _, c := range got {
				types = append(types, c.Type)
			}
			assert.Equal(t, tt.expectedTypes, types)
		})
	}
}

func TestKeywordExtractor_Confidence(t *testing.T) {
	ext := NewKeywordExtractor()

	t.Run("home agent boost", func(t *testing.T) {
		fromHome, err := ext.Extract(context.Background(), "log your meal", AgentNutrition, ConversationContext{})
		require.NoError(t, err)
		fromOther, err := ext.Extract(context.Background(), "log your meal", AgentGoal, ConversationContext{})
		require.NoError(t, err)

		home := findCandidate(t, fromHome, "log_meal")
		other := findCandidate(t, fromOther, "log_meal")
		assert.InDelta(t, 0.6, *home.Confidence, 1e-9)
		assert.InDelta(t, 0.5, *other.Confidence, 1e-9)
	})

	t.Run("extra keyword hits add confidence", func(t *testing.T) {
		got, err := ext.Extract(context.Background(), "more protein at every meal, watch calories", AgentGoal, ConversationContext{})
		require.NoError(t, err)

		meal := findCandidate(t, got, "log_meal")
		assert.InDelta(t, 0.6, *meal.Confidence, 1e-9)
		assert.ElementsMatch(t, []string{"meal", "protein", "calories"}, meal.Metadata["keywords"])
	})

	t.Run("confidence is capped", func(t *testing.T) {
		rule := Rule{Type: "x", Confidence: 0.9, Home: AgentGoal, Keywords: []string{"a", "b", "c"}}
		got, err := NewKeywordExtractor(rule).Extract(context.Background(), "a b c", AgentGoal, ConversationContext{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, maxRuleConfidence, *got[0].Confidence)
	})

	t.Run("declared priority is the rule priority", func(t *testing.T) {
		got, err := ext.Extract(context.Background(), "see a doctor", AgentFormSafety, ConversationContext{})
		require.NoError(t, err)
		c := findCandidate(t, got, "consult_professional")
		require.NotNil(t, c.Priority)
		assert.Equal(t, 2, *c.Priority)
	})
}

func TestKeywordExtractor_FeedsPipeline(t *testing.T) {
	p := NewPipeline(NewKeywordExtractor())
	got, err := p.Rank(context.Background(), []AgentResponse{
		{AgentType: AgentFormSafety, Message: "Stop if the pain is sharp and see a physio. Modify the workout.", Confidence: 0.9},
		{AgentType: AgentPrimaryCoach, Message: "Your schedule has a lighter workout tomorrow.", Confidence: 0.7},
		{AgentType: AgentNutrition, Message: "Drink water and log each meal.", Confidence: 0.6},
	}, ConversationContext{UserID: "u1"})
	require.NoError(t, err)

	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), MaxActions)
	assert.Equal(t, "consult_professional", got[0].Type)
	assert.Equal(t, "form_safety", got[0].Source)
}

func findCandidate(t *testing.T, cs []Candidate, typ string) Candidate {
	t.Helper()
	for _, c := range cs {
		if c.Type == typ {
			return c
		}
	}
	t.Fatalf("candidate %q not found in %v", typ, cs)
	return Candidate{}
}
