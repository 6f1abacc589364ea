package tools

import (
	"context"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitcoach/storage"
)

const (
	defaultDaysAhead = 7
	maxDaysAhead     = 30
)

type ScheduleGet struct {
	store storage.Store
	now   func() time.Time
}

func NewScheduleGet(store storage.Store, now func() time.Time) *ScheduleGet {
	return &ScheduleGet{store: store, now: now}
}

func (t *ScheduleGet) Name() string  { return "schedule_get" }
func (t *ScheduleGet) Title() string { return "Get Workout Schedule" }
func (t *ScheduleGet) Description() string {
	return "Returns the user's scheduled workouts from today through days_ahead days (default 7, max 30)."
}

func (t *ScheduleGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"days_ahead": {Type: "integer"},
		},
	}
}

func (t *ScheduleGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"today": {Type: "string"},
			"workouts": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":           {Type: "string"},
						"name":         {Type: "string"},
						"date":         {Type: "string"},
						"focus":        {Type: "string"},
						"duration_min": {Type: "integer"},
					},
					Required: []string{"id", "name", "date"},
				},
			},
		},
		Required: []string{"today", "workouts"},
	}
}

func (t *ScheduleGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	days := intArg(input, "days_ahead", defaultDaysAhead, maxDaysAhead)

	var sched Schedule
	if err := loadDocument(ctx, t.store, DocSchedule, &sched); err != nil {
		return nil, err
	}

	now := t.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, days)

	upcoming := make([]ScheduledWorkout, 0)
	for _, w := range sched.Workouts {
		d, err := time.ParseInLocation(dateLayout, w.Date, now.Location())
		if err != nil {
			continue
		}
		if d.Before(today) || !d.Before(end) {
			continue
		}
		upcoming = append(upcoming, w)
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date < upcoming[j].Date })

	return toMap(struct {
		Today    string             `json:"today"`
		Workouts []ScheduledWorkout `json:"workouts"`
	}{
		Today:    today.Format(dateLayout),
		Workouts: upcoming,
	})
}
