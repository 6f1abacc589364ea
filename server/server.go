// Package server exposes the coaching chat over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fitcoach"
	"fitcoach/chat"
	"fitcoach/coordinator"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxBodyBytes        = 64 << 10
)

type Coach interface {
	Chat(ctx context.Context, req coordinator.ChatRequest) (coordinator.ChatReply, error)
}

// Authenticator resolves the user behind a request.
type Authenticator interface {
	FromRequest(r *http.Request) (string, error)
}

type Server struct {
	coach   Coach
	history chat.History
	auth    Authenticator
}

type userKey struct{}

// NewHandler routes the chat API. history may be nil, in which case the
// history endpoint returns an empty list.
func NewHandler(coach Coach, history chat.History, auth Authenticator) http.Handler {
	s := &Server{coach: coach, history: history, auth: auth}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(traced)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok")) // nolint: errcheck
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/chat", s.Chat)
		r.Get("/chat/history", s.History)
	})

	return r
}

func traced(next http.Handler) http.Handler {
	tracer := otel.Tracer(fitcoach.TracerNameServer)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.FromRequest(r)
		if err != nil {
			slog.Info("SERVER: Rejected request", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	})
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

type chatBody struct {
	Message string `json:"message"`
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		slog.Warn("SERVER: Invalid chat body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	reply, err := s.coach.Chat(r.Context(), coordinator.ChatRequest{UserID: userFrom(r.Context()), Message: body.Message})
	if errors.Is(err, coordinator.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("SERVER: Chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	slog.Info("SERVER: Chat served", "cached", reply.Cached, "actions", len(reply.Actions), "duration_ms", time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, reply)
}

// History handles GET /v1/chat/history.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	exchanges := []chat.Exchange{}
	if s.history != nil {
		var err error
		exchanges, err = s.history.Recent(r.Context(), userFrom(r.Context()), limit)
		if err != nil {
			slog.Error("SERVER: History lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("SERVER: Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
