package coordinator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// defaultConfidence is given to replies that carry none, including plain
// text answers.
const defaultConfidence = 0.5

type specialistReply struct {
	Message    string   `json:"message"`
	Confidence *float64 `json:"confidence"`
}

var errEmptyReply = errors.New("reply message is empty")

// parseReply reads a specialist's final answer. JSON replies must carry a
// non-empty message; anything else is taken as the message itself.
func parseReply(content string) (string, float64, error) {
	s := stripFence(strings.TrimSpace(content))
	if s == "" {
		return "", 0, errEmptyReply
	}

	if !strings.HasPrefix(s, "{") {
		return s, defaultConfidence, nil
	}

	var r specialistReply
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return "", 0, fmt.Errorf("parse reply JSON: %w", err)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return "", 0, errEmptyReply
	}

	confidence := defaultConfidence
	if r.Confidence != nil {
		confidence = min(max(*r.Confidence, 0), 1)
	}
	return msg, confidence, nil
}

// stripFence removes a surrounding ```json ... ``` block.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
