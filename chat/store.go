package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fitcoach/storage"
)

const DefaultMaxExchanges = 50

type document struct {
	Exchanges []Exchange `json:"exchanges"`
}

// StoreHistory keeps one JSON document per user in a storage.Store. Only
// the latest MaxExchanges are kept.
type StoreHistory struct {
	store        storage.Store
	maxExchanges int

	// Serializes read-modify-write of the documents within this process.
	mu sync.Mutex
}

func NewStoreHistory(store storage.Store, maxExchanges int) *StoreHistory {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &StoreHistory{store: store, maxExchanges: maxExchanges}
}

func historyKey(userID string) string {
	return fmt.Sprintf("users/%s/chat.json", userID)
}

func (h *StoreHistory) Append(ctx context.Context, ex Exchange) error {
	if ex.UserID == "" {
		return ErrNoUser
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.load(ctx, ex.UserID)
	if err != nil {
		return err
	}
	doc.Exchanges = append(doc.Exchanges, ex)
	if over := len(doc.Exchanges) - h.maxExchanges; over > 0 {
		doc.Exchanges = doc.Exchanges[over:]
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := h.store.Save(ctx, historyKey(ex.UserID), data); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}

func (h *StoreHistory) Recent(ctx context.Context, userID string, n int) ([]Exchange, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	h.mu.Lock()
	doc, err := h.load(ctx, userID)
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return tail(doc.Exchanges, n), nil
}

func (h *StoreHistory) load(ctx context.Context, userID string) (document, error) {
	var doc document
	data, err := h.store.Load(ctx, historyKey(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("load chat history: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse chat history: %w", err)
	}
	return doc, nil
}

func tail(exs []Exchange, n int) []Exchange {
	if n <= 0 || len(exs) == 0 {
		return []Exchange{}
	}
	if len(exs) > n {
		exs = exs[len(exs)-n:]
	}
	return append([]Exchange(nil), exs...)
}
