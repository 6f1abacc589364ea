package tools

import (
	"context"
	"math"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitcoach/storage"
)

type MeasurementsGet struct{ store storage.Store }

func NewMeasurementsGet(store storage.Store) *MeasurementsGet { return &MeasurementsGet{store: store} }

func (t *MeasurementsGet) Name() string  { return "measurements_get" }
func (t *MeasurementsGet) Title() string { return "Get Body Measurements" }
func (t *MeasurementsGet) Description() string {
	return "Returns the user's most recent body measurements, newest first, and the weight change across them."
}

func (t *MeasurementsGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"limit": {Type: "integer"},
		},
	}
}

func (t *MeasurementsGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"entries": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"date":         {Type: "string"},
						"weight_kg":    {Type: "number"},
						"body_fat_pct": {Type: "number"},
						"waist_cm":     {Type: "number"},
					},
					Required: []string{"date"},
				},
			},
			"weight_change_kg": {Type: "number"},
		},
		Required: []string{"entries"},
	}
}

func (t *MeasurementsGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	limit := intArg(input, "limit", defaultHistoryLimit, maxHistoryLimit)

	var m Measurements
	if err := loadDocument(ctx, t.store, DocMeasurements, &m); err != nil {
		return nil, err
	}

	entries := append([]Measurement{}, m.Entries...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := struct {
		Entries        []Measurement `json:"entries"`
		WeightChangeKg *float64      `json:"weight_change_kg,omitempty"`
	}{Entries: entries}

	// newest minus oldest, over entries that recorded a weight
	var newest, oldest float64
	var n int
	for _, e := range entries {
		if e.WeightKg == 0 {
			continue
		}
		if n == 0 {
			newest = e.WeightKg
		}
		oldest = e.WeightKg
		n++
	}
	if n >= 2 {
		change := math.Round((newest-oldest)*10) / 10
		out.WeightChangeKg = &change
	}

	return toMap(out)
}
