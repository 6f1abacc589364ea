package actions

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"sort"
	"strings"
)

// Extractor turns a specialist reply into candidate actions.
type Extractor interface {
	Extract(ctx context.Context, message string, agentType AgentType, conv ConversationContext) ([]Candidate, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, message string, agentType AgentType, conv ConversationContext) ([]Candidate, error)

func (f ExtractorFunc) Extract(ctx context.Context, message string, agentType AgentType, conv ConversationContext) ([]Candidate, error) {
	return f(ctx, message, agentType, conv)
}

// Pipeline extracts, prioritizes, deduplicates and ranks the actions suggested
// by a set of specialist replies.
type Pipeline struct {
	extractor Extractor
}

// NewPipeline returns a pipeline backed by the given extractor.
func NewPipeline(extractor Extractor) *Pipeline {
	return &Pipeline{extractor: extractor}
}

// Rank returns at most MaxActions items, one per action type, ordered by
// ascending priority then descending confidence.
//
// A failing extractor call or a malformed candidate only drops that
// contribution. Responses from an unknown agent type fail the whole call.
func (p *Pipeline) Rank(ctx context.Context, responses []AgentResponse, conv ConversationContext) ([]ActionItem, error) {
	offsets := make([]int, len(responses))
	for i, resp := range responses {
		offset, err := PriorityOffset(resp.AgentType)
		if err != nil {
			return nil, fmt.Errorf("response %d: %w", i, err)
		}
		offsets[i] = offset
	}

	collected := make([]ActionItem, 0, len(responses))
	for i, resp := range responses {
		candidates, err := p.extractor.Extract(ctx, resp.Message, resp.AgentType, conv)
		if err != nil {
			slog.Warn("ACTIONS: Extractor failed; skipping response", "agent_type", resp.AgentType, "error", err)
			continue
		}

		for _, c := range candidates {
			item, ok := toActionItem(c, resp, offsets[i])
			if !ok {
				slog.Warn("ACTIONS: Dropping malformed candidate", "agent_type", resp.AgentType, "type", c.Type)
				continue
			}
			collected = append(collected, item)
		}
	}

	return RankItems(collected), nil
}

// RankItems deduplicates by type (highest confidence wins, first seen on
// ties), sorts and truncates. It does not touch priorities, so ranking an
// already ranked list returns it unchanged.
func RankItems(items []ActionItem) []ActionItem {
	out := make([]ActionItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		at, seen := index[item.Type]
		if !seen {
			index[item.Type] = len(out)
			out = append(out, item)
			continue
		}
		if item.Confidence > out[at].Confidence {
			out[at] = item
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Confidence > out[j].Confidence
	})

	if len(out) > MaxActions {
		out = out[:MaxActions]
	}
	return out
}

func toActionItem(c Candidate, resp AgentResponse, offset int) (ActionItem, bool) {
	typ := strings.TrimSpace(c.Type)
	if typ == "" {
		return ActionItem{}, false
	}

	confidence := 0.0
	if c.Confidence != nil {
		confidence = *c.Confidence
		if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
			return ActionItem{}, false
		}
	}

	base := DefaultBasePriority
	if c.Priority != nil {
		base = *c.Priority
	}

	return ActionItem{
		Type:            typ,
		Label:           c.Label,
		Icon:            c.Icon,
		Color:           c.Color,
		Priority:        base + offset,
		Confidence:      confidence,
		AgentConfidence: resp.Confidence,
		Source:          string(resp.AgentType),
		Metadata:        maps.Clone(c.Metadata),
	}, true
}
