package setup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitcoach/storage"
	"fitcoach/tools"
)

// Seed writes a small sample profile for userID so the tools have data to
// return in local runs. Dates are relative to now.
func Seed(ctx context.Context, store storage.Store, userID string, now time.Time) error {
	day := func(offset int) string { return now.AddDate(0, 0, offset).Format("2006-01-02") }

	docs := map[string]any{
		tools.DocSchedule: tools.Schedule{Workouts: []tools.ScheduledWorkout{
			{ID: "s1", Name: "Lower body strength", Date: day(0), Focus: "legs", DurationMin: 50},
			{ID: "s2", Name: "Easy run", Date: day(1), Focus: "cardio", DurationMin: 30},
			{ID: "s3", Name: "Upper body strength", Date: day(3), Focus: "push/pull", DurationMin: 45},
		}},
		tools.DocWorkoutLog: tools.WorkoutLog{Workouts: []tools.LoggedWorkout{
			{ID: "w1", Name: "Full body", Date: day(-3), DurationMin: 55, PerceivedEffort: 8, Exercises: []tools.ExerciseSet{
				{Exercise: "squat", Sets: 5, Reps: 5, WeightKg: 90},
				{Exercise: "bench press", Sets: 5, Reps: 5, WeightKg: 65},
			}},
			{ID: "w2", Name: "Intervals", Date: day(-1), DurationMin: 35, PerceivedEffort: 9, Notes: "knee felt tight"},
		}},
		tools.DocMeasurements: tools.Measurements{Entries: []tools.Measurement{
			{Date: day(-14), WeightKg: 82.4, BodyFatPct: 21.5, WaistCm: 90},
			{Date: day(-7), WeightKg: 81.9, BodyFatPct: 21.1},
			{Date: day(0), WeightKg: 81.2, WaistCm: 88.5},
		}},
		tools.DocFasting: tools.FastingLog{
			Current: &tools.Fast{StartedAt: now.Add(-13 * time.Hour), TargetHours: 16},
		},
	}

	for kind, doc := range docs {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", kind, err)
		}
		if err := store.Save(ctx, tools.DocumentKey(userID, kind), b); err != nil {
			return fmt.Errorf("save %s: %w", kind, err)
		}
	}
	return nil
}
