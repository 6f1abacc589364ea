// Package chat keeps the per-user conversation history the coordinator
// replays to specialists and the API serves back to clients.
package chat

import (
	"context"
	"errors"
	"time"

	"fitcoach/actions"
)

var ErrNoUser = errors.New("exchange has no user id")

// Exchange is one user message and the coordinated reply to it.
type Exchange struct {
	UserID      string               `json:"user_id"`
	UserMessage string               `json:"user_message"`
	Reply       string               `json:"reply"`
	Agents      []actions.AgentType  `json:"agents"`
	Actions     []actions.ActionItem `json:"actions"`
	CreatedAt   time.Time            `json:"created_at"`
}

type History interface {
	Append(ctx context.Context, ex Exchange) error
	// Recent returns up to n of the user's latest exchanges, oldest first.
	Recent(ctx context.Context, userID string, n int) ([]Exchange, error)
}
