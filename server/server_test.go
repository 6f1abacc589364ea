package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcoach/actions"
	"fitcoach/auth"
	"fitcoach/chat"
	"fitcoach/coordinator"
)

type fakeCoach struct {
	reply coordinator.ChatReply
	err   error
	got   coordinator.ChatRequest
}

func (f *fakeCoach) Chat(_ context.Context, req coordinator.ChatRequest) (coordinator.ChatReply, error) {
	f.got = req
	return f.reply, f.err
}

type fakeHistory struct {
	exchanges []chat.Exchange
	err       error
	userID    string
	n         int
}

func (f *fakeHistory) Append(context.Context, chat.Exchange) error { return nil }

func (f *fakeHistory) Recent(_ context.Context, userID string, n int) ([]chat.Exchange, error) {
	f.userID, f.n = userID, n
	return f.exchanges, f.err
}

func newSigner(t *testing.T) *auth.Signer {
	t.Helper()
	s, err := auth.NewSigner("test-secret", "fitcoach")
	require.NoError(t, err)
	return s
}

func bearer(t *testing.T, s *auth.Signer, userID string) string {
	t.Helper()
	tok, err := s.Issue(userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestHealthz(t *testing.T) {
	h := NewHandler(&fakeCoach{}, nil, newSigner(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestChat(t *testing.T) {
	signer := newSigner(t)

	tests := []struct {
		name       string
		auth       string
		body       string
		coach      *fakeCoach
		wantStatus int
		wantError  string
	}{
		{
			name: "reply",
			auth: bearer(t, signer, "u1"),
			body: `{"message":"my knee hurts"}`,
			coach: &fakeCoach{reply: coordinator.ChatReply{
				Reply:   "Ease off.",
				Actions: []actions.ActionItem{{Type: "stop_if_pain", Priority: 1}},
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			body:       `{"message":"hi"}`,
			coach:      &fakeCoach{},
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized",
		},
		{
			name:       "bad token",
			auth:       "Bearer nope",
			body:       `{"message":"hi"}`,
			coach:      &fakeCoach{},
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized",
		},
		{
			name:       "malformed body",
			auth:       bearer(t, signer, "u1"),
			body:       `{"message":`,
			coach:      &fakeCoach{},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "invalid request",
			auth:       bearer(t, signer, "u1"),
			body:       `{"message":""}`,
			coach:      &fakeCoach{err: coordinator.ErrInvalidRequest},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "coach failure",
			auth:       bearer(t, signer, "u1"),
			body:       `{"message":"hi"}`,
			coach:      &fakeCoach{err: errors.New("bedrock down")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "chat failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.coach, nil, signer)

			req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusOK {
				var got coordinator.ChatReply
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tt.coach.reply.Reply, got.Reply)
				assert.Equal(t, "u1", tt.coach.got.UserID)
				assert.Equal(t, "my knee hurts", tt.coach.got.Message)
				return
			}

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestHistory(t *testing.T) {
	signer := newSigner(t)
	exchanges := []chat.Exchange{{UserID: "u1", UserMessage: "hi", Reply: "hello"}}

	tests := []struct {
		name       string
		query      string
		history    *fakeHistory
		wantStatus int
		wantLimit  int
	}{
		{name: "default limit", history: &fakeHistory{exchanges: exchanges}, wantStatus: http.StatusOK, wantLimit: 20},
		{name: "explicit limit", query: "?limit=5", history: &fakeHistory{exchanges: exchanges}, wantStatus: http.StatusOK, wantLimit: 5},
		{name: "limit capped", query: "?limit=1000", history: &fakeHistory{exchanges: exchanges}, wantStatus: http.StatusOK, wantLimit: 100},
		{name: "bad limit", query: "?limit=zero", history: &fakeHistory{}, wantStatus: http.StatusBadRequest},
		{name: "negative limit", query: "?limit=-1", history: &fakeHistory{}, wantStatus: http.StatusBadRequest},
		{name: "store failure", history: &fakeHistory{err: errors.New("disk full")}, wantStatus: http.StatusInternalServerError, wantLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeCoach{}, tt.history, signer)

			req := httptest.NewRequest(http.MethodGet, "/v1/chat/history"+tt.query, nil)
			req.Header.Set("Authorization", bearer(t, signer, "u1"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLimit, tt.history.n)
			if tt.wantStatus != http.StatusOK {
				return
			}

			assert.Equal(t, "u1", tt.history.userID)
			var got struct {
				Exchanges []chat.Exchange `json:"exchanges"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, exchanges[0].Reply, got.Exchanges[0].Reply)
		})
	}
}

func TestHistory_NoStore(t *testing.T) {
	signer := newSigner(t)
	h := NewHandler(&fakeCoach{}, nil, signer)

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/history", nil)
	req.Header.Set("Authorization", bearer(t, signer, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exchanges":[]}`, rec.Body.String())
}
