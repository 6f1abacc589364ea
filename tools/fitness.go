package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitcoach/storage"
)

const dateLayout = "2006-01-02"

type ScheduledWorkout struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Focus       string `json:"focus,omitempty"`
	DurationMin int    `json:"duration_min,omitempty"`
}

type Schedule struct {
	Workouts []ScheduledWorkout `json:"workouts"`
}

type ExerciseSet struct {
	Exercise string  `json:"exercise"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg,omitempty"`
}

type LoggedWorkout struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Date            string        `json:"date"`
	DurationMin     int           `json:"duration_min,omitempty"`
	PerceivedEffort int           `json:"perceived_effort,omitempty"`
	Exercises       []ExerciseSet `json:"exercises,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

type WorkoutLog struct {
	Workouts []LoggedWorkout `json:"workouts"`
}

type Measurement struct {
	Date       string  `json:"date"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
	BodyFatPct float64 `json:"body_fat_pct,omitempty"`
	WaistCm    float64 `json:"waist_cm,omitempty"`
}

type Measurements struct {
	Entries []Measurement `json:"entries"`
}

type Fast struct {
	StartedAt   time.Time  `json:"started_at"`
	TargetHours float64    `json:"target_hours"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

type FastingLog struct {
	Current *Fast  `json:"current,omitempty"`
	History []Fast `json:"history,omitempty"`
}

const (
	DocSchedule     = "schedule"
	DocWorkoutLog   = "workouts"
	DocMeasurements = "measurements"
	DocFasting      = "fasting"
)

// DocumentKey is where a user's document of the given kind is stored.
func DocumentKey(userID, kind string) string {
	return fmt.Sprintf("users/%s/%s.json", userID, kind)
}

// loadDocument decodes the user's document into v. A missing document leaves
// v untouched and is not an error.
func loadDocument(ctx context.Context, store storage.Store, kind string, v any) error {
	userID, err := UserIDFrom(ctx)
	if err != nil {
		return err
	}

	b, err := store.Load(ctx, DocumentKey(userID, kind))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", kind, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", kind, err)
	}
	return nil
}
