package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	// InputErr is set when the model's arguments could not be decoded. The
	// call is then answered with an error instead of being run.
	InputErr string `json:"input_error,omitempty"`
}

var ErrNoUser = errors.New("no user in context")

type userIDKey struct{}

// WithUserID scopes tool calls made under ctx to a single user. Tools never
// take the user from model input.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFrom(ctx context.Context) (string, error) {
	id, _ := ctx.Value(userIDKey{}).(string)
	if id == "" {
		return "", ErrNoUser
	}
	return id, nil
}

// intArg reads an integer argument, clamped to [1, ceiling]. Decoded JSON gives
// float64, normalized model input gives int.
func intArg(input map[string]any, key string, def, ceiling int) int {
	v := def
	switch n := input[key].(type) {
	case int:
		v = n
	case float64:
		v = int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			v = int(i)
		}
	}
	if v < 1 {
		v = def
	}
	if v > ceiling {
		v = ceiling
	}
	return v
}

// toMap keeps tool outputs uniform.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
