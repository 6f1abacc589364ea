package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the chat_messages table. EnsureSchema runs it.
const Schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id           BIGSERIAL PRIMARY KEY,
    user_id      TEXT NOT NULL,
    user_message TEXT NOT NULL,
    reply        TEXT NOT NULL,
    agents       JSONB NOT NULL DEFAULT '[]',
    actions      JSONB NOT NULL DEFAULT '[]',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_messages_user_created_idx
    ON chat_messages (user_id, created_at DESC);
`

// dbtx is the subset of *pgxpool.Pool the history uses.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresHistory stores exchanges as rows of chat_messages.
type PostgresHistory struct {
	db dbtx
}

func NewPostgresHistory(db dbtx) *PostgresHistory {
	return &PostgresHistory{db: db}
}

func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create chat_messages: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Append(ctx context.Context, ex Exchange) error {
	if ex.UserID == "" {
		return ErrNoUser
	}
	agents, err := json.Marshal(ex.Agents)
	if err != nil {
		return fmt.Errorf("encode agents: %w", err)
	}
	acts, err := json.Marshal(ex.Actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}

	query := `
        INSERT INTO chat_messages (user_id, user_message, reply, agents, actions, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if _, err := h.db.Exec(ctx, query, ex.UserID, ex.UserMessage, ex.Reply, agents, acts, ex.CreatedAt); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Recent(ctx context.Context, userID string, n int) ([]Exchange, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if n <= 0 {
		return []Exchange{}, nil
	}

	query := `
        SELECT user_id, user_message, reply, agents, actions, created_at
        FROM chat_messages
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := h.db.Query(ctx, query, userID, n)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	out := []Exchange{}
	for rows.Next() {
		var ex Exchange
		var agents, acts []byte
		if err := rows.Scan(&ex.UserID, &ex.UserMessage, &ex.Reply, &agents, &acts, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if err := json.Unmarshal(agents, &ex.Agents); err != nil {
			return nil, fmt.Errorf("decode agents: %w", err)
		}
		if err := json.Unmarshal(acts, &ex.Actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chat messages: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
