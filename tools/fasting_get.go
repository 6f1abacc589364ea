package tools

import (
	"context"
	"math"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitcoach/storage"
)

type FastingGet struct {
	store storage.Store
	now   func() time.Time
}

func NewFastingGet(store storage.Store, now func() time.Time) *FastingGet {
	return &FastingGet{store: store, now: now}
}

func (t *FastingGet) Name() string  { return "fasting_get" }
func (t *FastingGet) Title() string { return "Get Fasting Status" }
func (t *FastingGet) Description() string {
	return "Returns whether the user is currently fasting, hours elapsed, hours remaining to target, and the number of completed fasts."
}

func (t *FastingGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *FastingGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"active":          {Type: "boolean"},
			"started_at":      {Type: "string"},
			"target_hours":    {Type: "number"},
			"elapsed_hours":   {Type: "number"},
			"remaining_hours": {Type: "number"},
			"completed_fasts": {Type: "integer"},
		},
		Required: []string{"active", "completed_fasts"},
	}
}

func (t *FastingGet) Run(ctx context.Context, _ map[string]any) (map[string]any, error) {
	var log FastingLog
	if err := loadDocument(ctx, t.store, DocFasting, &log); err != nil {
		return nil, err
	}

	completed := 0
	for _, f := range log.History {
		if f.EndedAt != nil {
			completed++
		}
	}

	out := map[string]any{
		"active":          false,
		"completed_fasts": completed,
	}

	cur := log.Current
	if cur == nil || cur.EndedAt != nil {
		return out, nil
	}

	elapsed := t.now().Sub(cur.StartedAt).Hours()
	out["active"] = true
	out["started_at"] = cur.StartedAt.UTC().Format(time.RFC3339)
	out["target_hours"] = cur.TargetHours
	out["elapsed_hours"] = roundTenth(elapsed)
	out["remaining_hours"] = roundTenth(math.Max(cur.TargetHours-elapsed, 0))
	return out, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
