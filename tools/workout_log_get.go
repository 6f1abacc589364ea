package tools

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitcoach/storage"
)

const (
	defaultHistoryLimit = 5
	maxHistoryLimit     = 20
)

type WorkoutLogGet struct{ store storage.Store }

func NewWorkoutLogGet(store storage.Store) *WorkoutLogGet { return &WorkoutLogGet{store: store} }

func (t *WorkoutLogGet) Name() string  { return "workout_log_get" }
func (t *WorkoutLogGet) Title() string { return "Get Logged Workouts" }
func (t *WorkoutLogGet) Description() string {
	return "Returns the user's most recent logged workouts, newest first, with exercises and perceived effort."
}

func (t *WorkoutLogGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"limit": {Type: "integer"},
		},
	}
}

func (t *WorkoutLogGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"workouts": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "object"},
			},
		},
		Required: []string{"workouts"},
	}
}

func (t *WorkoutLogGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	limit := intArg(input, "limit", defaultHistoryLimit, maxHistoryLimit)

	var log WorkoutLog
	if err := loadDocument(ctx, t.store, DocWorkoutLog, &log); err != nil {
		return nil, err
	}

	recent := append([]LoggedWorkout{}, log.Workouts...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > limit {
		recent = recent[:limit]
	}

	return toMap(struct {
		Workouts []LoggedWorkout `json:"workouts"`
	}{Workouts: recent})
}
