package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithydocument "github.com/aws/smithy-go/document"

	"fitcoach/llm"
	"fitcoach/tools"
)

const (
	// defaultModelID is an inference profile ID, not a foundation model ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Specialist replies are short; raise for longer coaching answers.
	defaultMaxTokens = 1024

	// Low temperature and top_p keep the JSON reply format stable.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

var (
	ErrMaxTokens = errors.New("model hit MaxTokens limit")
	ErrBlocked   = errors.New("model response blocked by Bedrock safety filters")
)

type runtimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Client talks to the Bedrock Converse API.
type Client struct {
	brc  runtimeClient
	opts Options
}

func NewClient(brc runtimeClient, opts Options) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{brc: brc, opts: opts}
}

func (c *Client) Invoke(ctx context.Context, prompt llm.Prompt) (llm.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "provider", "bedrock", "messages_len", len(prompt.Messages))

	in, err := c.converseInput(prompt)
	if err != nil {
		return llm.Response{}, err
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock converse failed", "error", err, "model_id", c.opts.ModelID)
		return llm.Response{}, fmt.Errorf("bedrock converse: %w", err)
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	slog.Info("LLM_CLIENT: Bedrock converse succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonToolUse:
		calls := toolCallsFromOutput(out)
		slog.Info("LLM_CLIENT: Extracted tool calls", "calls_len", len(calls))
		return llm.Response{Content: textFromOutput(out), ToolCalls: calls}, nil

	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		text := textFromOutput(out)
		slog.Info("LLM_CLIENT: Extracted final text", "text_len", len(text))
		return llm.Response{Content: text}, nil

	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit", "max_tokens", c.opts.MaxTokens)
		return llm.Response{}, ErrMaxTokens

	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked", "stop_reason", out.StopReason)
		return llm.Response{}, ErrBlocked

	default:
		return llm.Response{Content: textFromOutput(out), ToolCalls: toolCallsFromOutput(out)}, nil
	}
}

func (c *Client) converseInput(prompt llm.Prompt) (*bedrockruntime.ConverseInput, error) {
	var sys []types.SystemContentBlock
	var msgs []types.Message

	for _, m := range prompt.Messages {
		if m.Role == llm.RoleSystem {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content.Join()})
			continue
		}

		msg := types.Message{Role: types.ConversationRole(m.Role)}
		for _, part := range m.Content {
			block, err := contentBlock(part)
			if err != nil {
				return nil, err
			}
			if block != nil {
				msg.Content = append(msg.Content, block)
			}
		}
		if len(msg.Content) > 0 {
			msgs = append(msgs, msg)
		}
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.opts.ModelID),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}

	// Converse rejects an empty tool list, so only attach a config when there are tools.
	if len(prompt.Tools) > 0 {
		var specs []types.Tool
		for _, t := range prompt.Tools {
			spec, err := buildToolSpec(t)
			if err != nil {
				return nil, err
			}
			specs = append(specs, &types.ToolMemberToolSpec{Value: spec})
		}
		in.ToolConfig = &types.ToolConfiguration{Tools: specs, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}

	return in, nil
}

func contentBlock(part llm.MessagePart) (types.ContentBlock, error) {
	switch part.Type {
	case llm.PartText:
		if part.Text == "" {
			return nil, nil
		}
		return &types.ContentBlockMemberText{Value: part.Text}, nil

	case llm.PartToolUse:
		input, err := plainMap(part.Data)
		if err != nil {
			return nil, fmt.Errorf("tool use %s input: %w", part.ToolName, err)
		}
		return &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
			ToolUseId: aws.String(part.ToolUseID),
			Name:      aws.String(part.ToolName),
			Input:     document.NewLazyDocument(input),
		}}, nil

	case llm.PartToolResult:
		result, err := plainMap(part.Data)
		if err != nil {
			return nil, fmt.Errorf("tool result %s: %w", part.ToolName, err)
		}
		status := types.ToolResultStatusSuccess
		if _, failed := result["error"]; failed {
			status = types.ToolResultStatusError
		}
		return &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
			ToolUseId: aws.String(part.ToolUseID),
			Status:    status,
			Content: []types.ToolResultContentBlock{
				&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(result)},
			},
		}}, nil

	default:
		return nil, fmt.Errorf("unsupported message part type %q", part.Type)
	}
}

// plainMap round-trips through JSON so the smithy document encoder only
// sees maps, slices, strings, numbers and bools.
func plainMap(in map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if in == nil {
		return out, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func buildToolSpec(t llm.Tool) (types.ToolSpecification, error) {
	// The schema type has a custom MarshalJSON; go through it before the document encoder.
	schemaJSON, err := json.Marshal(t.InputSchema)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name, err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name, err)
	}

	return types.ToolSpecification{
		Name:        aws.String(t.Name),
		Description: aws.String(t.Description),
		InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schemaMap)},
	}, nil
}

// textFromOutput prefers the last text block that looks like a single JSON
// object, since specialists answer in JSON. Otherwise text blocks are joined
// with newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	var texts []string
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s
		}
	}
	return strings.Join(texts, "\n")
}

func toolCallsFromOutput(out *bedrockruntime.ConverseOutput) []tools.Call {
	if out == nil {
		return nil
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return nil
	}

	var calls []tools.Call
	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok {
			continue
		}

		call := tools.Call{
			Name:      aws.ToString(tu.Value.Name),
			Input:     map[string]any{},
			ToolUseID: aws.ToString(tu.Value.ToolUseId),
		}
		if tu.Value.Input != nil {
			input := map[string]any{}
			if err := tu.Value.Input.UnmarshalSmithyDocument(&input); err != nil {
				slog.Warn("LLM_CLIENT: Could not decode tool input", "tool", call.Name, "error", err)
				call.InputErr = err.Error()
			} else {
				call.Input = normalizeInput(input).(map[string]any)
			}
		}

		calls = append(calls, call)
	}
	return calls
}

// normalizeInput coerces decoded tool input: numbers become int when whole
// and float64 otherwise, and stringified JSON is decoded.
func normalizeInput(val any) any {
	switch v := val.(type) {
	case smithydocument.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return normalizeInput(f)
		}
		return string(v)
	case json.Number:
		return normalizeInput(smithydocument.Number(v))
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
		return v
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			var decoded any
			if json.Unmarshal([]byte(s), &decoded) == nil {
				return normalizeInput(decoded)
			}
		}
		return v
	case []any:
		for i := range v {
			v[i] = normalizeInput(v[i])
		}
		return v
	case map[string]any:
		for key, inner := range v {
			v[key] = normalizeInput(inner)
		}
		return v
	default:
		return v
	}
}
