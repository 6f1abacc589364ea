package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcoach/storage"
)

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func userCtx() context.Context {
	return WithUserID(context.Background(), "u1")
}

func seededStore(t *testing.T, docs map[string]any) *storage.Memory {
	t.Helper()
	raw := map[string][]byte{}
	for kind, v := range docs {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		raw[DocumentKey("u1", kind)] = b
	}
	return storage.NewMemory(raw)
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(nil), clock)
	require.NoError(t, err)

	var names []string
	for _, tool := range reg.GetTools() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"fasting_get", "measurements_get", "schedule_get", "workout_log_get"}, names)

	tool, err := reg.GetTool("schedule_get")
	require.NoError(t, err)
	assert.Equal(t, "Get Workout Schedule", tool.Title())

	_, err = reg.GetTool("calorie_get")
	assert.ErrorContains(t, err, `tool "calorie_get" not found`)

	_, err = NewRegistry(nil, nil)
	assert.Error(t, err)
}

func TestUserIDFrom(t *testing.T) {
	id, err := UserIDFrom(userCtx())
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = UserIDFrom(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestScheduleGet_Run(t *testing.T) {
	store := seededStore(t, map[string]any{
		DocSchedule: Schedule{Workouts: []ScheduledWorkout{
			{ID: "w3", Name: "Long run", Date: "2026-03-14"},
			{ID: "w0", Name: "Yesterday", Date: "2026-03-09"},
			{ID: "w1", Name: "Legs", Date: "2026-03-10", Focus: "strength", DurationMin: 45},
			{ID: "w2", Name: "Upper", Date: "2026-03-12"},
			{ID: "w9", Name: "Far away", Date: "2026-04-30"},
			{ID: "bad", Name: "Bad date", Date: "next tuesday"},
		}},
	})
	tool := NewScheduleGet(store, clock)

	tests := []struct {
		name     string
		input    map[string]any
		expected []string
	}{
		{name: "default window", input: map[string]any{}, expected: []string{"w1", "w2", "w3"}},
		{name: "one day", input: map[string]any{"days_ahead": 1.0}, expected: []string{"w1"}},
		{name: "normalized int", input: map[string]any{"days_ahead": 3}, expected: []string{"w1", "w2"}},
		{name: "window is capped", input: map[string]any{"days_ahead": 365.0}, expected: []string{"w1", "w2", "w3"}},
		{name: "invalid window falls back", input: map[string]any{"days_ahead": -4.0}, expected: []string{"w1", "w2", "w3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Run(userCtx(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, "2026-03-10", out["today"])

			var ids []string
			for _, w := range out["workouts"].([]any) {
				ids = append(ids, w.(map[string]any)["id"].(string))
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	t.Run("no schedule document", func(t *testing.T) {
		out, err := NewScheduleGet(storage.NewMemory(nil), clock).Run(userCtx(), nil)
		require.NoError(t, err)
		assert.Equal(t, []any{}, out["workouts"])
	})

	t.Run("requires user", func(t *testing.T) {
		_, err := tool.Run(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoUser)
	})

	t.Run("corrupted document", func(t *testing.T) {
		store := storage.NewMemory(map[string][]byte{DocumentKey("u1", DocSchedule): []byte("not json")})
		_, err := NewScheduleGet(store, clock).Run(userCtx(), nil)
		assert.ErrorContains(t, err, "parse schedule")
	})

	t.Run("store failure", func(t *testing.T) {
		_, err := NewScheduleGet(storage.NewMemoryWithError(assert.AnError), clock).Run(userCtx(), nil)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestWorkoutLogGet_Run(t *testing.T) {
	store := seededStore(t, map[string]any{
		DocWorkoutLog: WorkoutLog{Workouts: []LoggedWorkout{
			{ID: "a", Name: "Push", Date: "2026-03-01"},
			{ID: "c", Name: "Legs", Date: "2026-03-08", PerceivedEffort: 9, Exercises: []ExerciseSet{{Exercise: "squat", Sets: 5, Reps: 5, WeightKg: 100}}},
			{ID: "b", Name: "Pull", Date: "2026-03-04"},
		}},
	})
	tool := NewWorkoutLogGet(store)

	out, err := tool.Run(userCtx(), map[string]any{"limit": 2.0})
	require.NoError(t, err)

	workouts := out["workouts"].([]any)
	require.Len(t, workouts, 2)
	first := workouts[0].(map[string]any)
	assert.Equal(t, "c", first["id"])
	assert.Equal(t, 9.0, first["perceived_effort"])
	assert.Equal(t, "b", workouts[1].(map[string]any)["id"])
}

func TestMeasurementsGet_Run(t *testing.T) {
	tests := []struct {
		name           string
		entries        []Measurement
		input          map[string]any
		expectedDates  []string
		expectedChange any
	}{
		{
			name: "weight change across entries",
			entries: []Measurement{
				{Date: "2026-02-01", WeightKg: 82.4},
				{Date: "2026-03-01", WeightKg: 80.1, WaistCm: 88},
				{Date: "2026-02-15", BodyFatPct: 18},
			},
			input:          map[string]any{},
			expectedDates:  []string{"2026-03-01", "2026-02-15", "2026-02-01"},
			expectedChange: -2.3,
		},
		{
			name: "single weight has no change",
			entries: []Measurement{
				{Date: "2026-03-01", WeightKg: 80.1},
			},
			input:          map[string]any{},
			expectedDates:  []string{"2026-03-01"},
			expectedChange: nil,
		},
		{
			name: "limit applies before change",
			entries: []Measurement{
				{Date: "2026-01-01", WeightKg: 90},
				{Date: "2026-02-01", WeightKg: 85},
				{Date: "2026-03-01", WeightKg: 84},
			},
			input:          map[string]any{"limit": 2.0},
			expectedDates:  []string{"2026-03-01", "2026-02-01"},
			expectedChange: -1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, map[string]any{DocMeasurements: Measurements{Entries: tt.entries}})
			out, err := NewMeasurementsGet(store).Run(userCtx(), tt.input)
			require.NoError(t, err)

			var dates []string
			for _, e := range out["entries"].([]any) {
				dates = append(dates, e.(map[string]any)["date"].(string))
			}
			assert.Equal(t, tt.expectedDates, dates)

			if tt.expectedChange == nil {
				assert.NotContains(t, out, "weight_change_kg")
				return
			}
			assert.InDelta(t, tt.expectedChange, out["weight_change_kg"], 1e-9)
		})
	}
}

func TestFastingGet_Run(t *testing.T) {
	ended := fixedNow.Add(-48 * time.Hour)

	tests := []struct {
		name     string
		log      *FastingLog
		expected map[string]any
	}{
		{
			name:     "no fasting document",
			log:      nil,
			expected: map[string]any{"active": false, "completed_fasts": 0},
		},
		{
			name: "active fast",
			log: &FastingLog{
				Current: &Fast{StartedAt: fixedNow.Add(-10*time.Hour - 15*time.Minute), TargetHours: 16},
				History: []Fast{{StartedAt: ended.Add(-16 * time.Hour), TargetHours: 16, EndedAt: &ended}, {StartedAt: ended}},
			},
			expected: map[string]any{
				"active":          true,
				"completed_fasts": 1,
				"started_at":      "2026-03-10T05:15:00Z",
				"target_hours":    16.0,
				"elapsed_hours":   10.3,
				"remaining_hours": 5.8,
			},
		},
		{
			name: "past target clamps remaining",
			log: &FastingLog{
				Current: &Fast{StartedAt: fixedNow.Add(-20 * time.Hour), TargetHours: 16},
			},
			expected: map[string]any{
				"active":          true,
				"completed_fasts": 0,
				"started_at":      "2026-03-09T19:30:00Z",
				"target_hours":    16.0,
				"elapsed_hours":   20.0,
				"remaining_hours": 0.0,
			},
		},
		{
			name: "ended current fast is not active",
			log: &FastingLog{
				Current: &Fast{StartedAt: ended.Add(-16 * time.Hour), TargetHours: 16, EndedAt: &ended},
			},
			expected: map[string]any{"active": false, "completed_fasts": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := map[string]any{}
			if tt.log != nil {
				docs[DocFasting] = tt.log
			}
			out, err := NewFastingGet(seededStore(t, docs), clock).Run(userCtx(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestToolSchemas(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(nil), clock)
	require.NoError(t, err)

	for _, tool := range reg.GetTools() {
		t.Run(tool.Name(), func(t *testing.T) {
			assert.NotEmpty(t, tool.Description())
			require.NotNil(t, tool.InputSchema())
			assert.Equal(t, "object", tool.InputSchema().Type)
			require.NotNil(t, tool.OutputSchema())
			assert.Equal(t, "object", tool.OutputSchema().Type)
			assert.NotEmpty(t, tool.OutputSchema().Required)
		})
	}
}
