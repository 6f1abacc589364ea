package llm

import "fitcoach/tools"

type Prompt struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// ToolProvider is the subset of the tool registry a prompt needs.
type ToolProvider interface {
	GetTools() []tools.Tool
}

// NewPrompt starts a conversation with a system prompt. tp may be nil when
// the assistant gets no tools.
func NewPrompt(system string, tp ToolProvider) Prompt {
	p := Prompt{
		Messages: []Message{TextMessage(RoleSystem, system)},
	}
	if tp == nil {
		return p
	}

	for _, tool := range tp.GetTools() {
		p.Tools = append(p.Tools, Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return p
}

// System returns the joined text of all system messages.
func (p *Prompt) System() string {
	var out string
	for _, m := range p.Messages {
		if m.Role == RoleSystem {
			out += m.Content.Join()
		}
	}
	return out
}

// HasToolResult reports whether a tool_result part for the named tool exists
// anywhere in the message history.
func (p *Prompt) HasToolResult(tool string) bool {
	for _, msg := range p.Messages {
		for _, part := range msg.Content {
			if part.Type == PartToolResult && part.ToolName == tool {
				return true
			}
		}
	}
	return false
}

// LastText returns the text of the last message, truncated to n bytes for logging.
func (p *Prompt) LastText(n int) string {
	if len(p.Messages) == 0 {
		return "no content"
	}
	text := p.Messages[len(p.Messages)-1].Content.Join()
	if text == "" {
		return "no content"
	}
	if len(text) > n && n > 3 {
		text = text[:n-3] + "..."
	}
	return text
}
