package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"fitcoach/llm"
	"fitcoach/tools"
)

const (
	DefaultEndpoint = "http://localhost:11434"
	DefaultModel    = "llama3.2"
)

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// Client talks to a local Ollama server over its native chat API.
type Client struct {
	endpoint   string
	model      string
	httpClient doer
	options    options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   doer
}

func NewClient(opts ClientOpts) *Client {
	if opts.BaseEndpoint == "" {
		opts.BaseEndpoint = DefaultEndpoint
	}
	if opts.ModelID == "" {
		opts.ModelID = DefaultModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384, // raise if the machine can handle it
		},
	}
}

type wireToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Name      string         `json:"name,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
}

// Invoke sends the prompt to /api/chat. Tool calls come back without IDs, so
// each one is given a positional ID for the result turn.
func (c *Client) Invoke(ctx context.Context, prompt llm.Prompt) (llm.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "provider", "ollama", "messages_len", len(prompt.Messages))

	wt, err := wireTools(prompt.Tools)
	if err != nil {
		return llm.Response{}, err
	}
	reqBytes, err := json.Marshal(wireRequest{
		Model:    c.model,
		Messages: wireMessages(prompt.Messages),
		Tools:    wt,
		Stream:   false,
		Options:  c.options,
	})
	if err != nil {
		return llm.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return llm.Response{}, fmt.Errorf("ollama chat: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "error", err)
		return llm.Response{Content: string(body)}, nil
	}

	out := llm.Response{Content: wr.Message.Content}
	for i, call := range wr.Message.ToolCalls {
		args := call.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, tools.Call{
			Name:      call.Function.Name,
			Input:     args,
			ToolUseID: fmt.Sprintf("call_%d", i),
		})
	}
	return out, nil
}

// wireMessages flattens message parts into Ollama chat turns. Tool results
// become role=tool messages named after the function.
func wireMessages(msgs []llm.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		var calls []wireToolCall
		var results []wireMessage
		for _, part := range m.Content {
			switch part.Type {
			case llm.PartToolUse:
				var tc wireToolCall
				tc.Function.Name = part.ToolName
				tc.Function.Arguments = part.Data
				calls = append(calls, tc)
			case llm.PartToolResult:
				if strings.TrimSpace(part.ToolName) == "" {
					slog.Warn("LLM_CLIENT: dropping tool result without name")
					continue
				}
				b, err := json.Marshal(part.Data)
				if err != nil {
					b = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
				}
				results = append(results, wireMessage{Role: "tool", Name: part.ToolName, Content: string(b)})
			}
		}

		text := m.Content.Join()
		switch m.Role {
		case llm.RoleSystem, llm.RoleAssistant:
			if text != "" || len(calls) > 0 {
				out = append(out, wireMessage{Role: m.Role, Content: text, ToolCalls: calls})
			}
		case llm.RoleUser:
			if text != "" {
				out = append(out, wireMessage{Role: llm.RoleUser, Content: text})
			}
		default:
			slog.Warn("LLM_CLIENT: unknown role, coercing to user", "role", m.Role)
			if text != "" {
				out = append(out, wireMessage{Role: llm.RoleUser, Content: text})
			}
		}
		out = append(out, results...)
	}
	return out
}

func wireTools(ts []llm.Tool) ([]wireTool, error) {
	var out []wireTool
	for _, t := range ts {
		params := map[string]any{"type": "object"}
		if t.InputSchema != nil {
			b, err := json.Marshal(t.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("marshal tool schema for %s: %w", t.Name, err)
			}
			if err := json.Unmarshal(b, &params); err != nil {
				return nil, fmt.Errorf("unmarshal tool schema for %s: %w", t.Name, err)
			}
		}
		out = append(out, wireTool{
			Type:     "function",
			Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: params},
		})
	}
	return out, nil
}
