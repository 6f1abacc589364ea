// Package coordinator answers a user's chat message by consulting the
// relevant fitness specialists and ranking the actions they suggest.
package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"fitcoach"
	"fitcoach/actions"
	"fitcoach/cache"
	"fitcoach/chat"
	"fitcoach/llm"
	"fitcoach/tools"
)

var (
	ErrInvalidRequest = errors.New("invalid chat request")
	ErrMaxIterations  = errors.New("no reply within the iteration limit")
	ErrNoReply        = errors.New("every specialist failed")
)

const (
	defaultMaxIterations        = 6
	defaultSafetyAlertThreshold = 0.8
)

type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type ChatReply struct {
	Reply     string                  `json:"reply"`
	Agents    []actions.AgentResponse `json:"agents"`
	Actions   []actions.ActionItem    `json:"actions"`
	Cached    bool                    `json:"cached"`
	CreatedAt time.Time               `json:"created_at"`
}

// Options holds the optional collaborators of a Coordinator. Zero values get
// working defaults: no history, no cache, no alerts.
type Options struct {
	MaxIterations        int
	HistoryLimit         int
	SafetyAlertThreshold float64
	ConsultTimeout       time.Duration
	// MaxConcurrent bounds the specialists consulted at once. Zero means all.
	MaxConcurrent int

	Logger         fitcoach.ConsultationLogger
	History        chat.History
	Cache          cache.Cache
	Notifier       fitcoach.SafetyNotifier
	Extractor      actions.Extractor
	Router         *Router
	Now            func() time.Time
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

type Coordinator struct {
	llm           llm.Client
	toolProvider  fitcoach.ToolProvider
	maxIterations int
	historyLimit  int
	threshold     float64
	timeout       time.Duration
	maxConcurrent int
	logger        fitcoach.ConsultationLogger
	history       chat.History
	cache         cache.Cache
	notifier      fitcoach.SafetyNotifier
	pipeline      *actions.Pipeline
	router        *Router
	now           func() time.Time
	tracer        trace.Tracer
	ins           *instruments
}

func New(client llm.Client, toolProvider fitcoach.ToolProvider, opts Options) (*Coordinator, error) {
	if client == nil {
		return nil, errors.New("coordinator needs an llm client")
	}
	if toolProvider == nil {
		return nil, errors.New("coordinator needs a tool provider")
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.SafetyAlertThreshold <= 0 {
		opts.SafetyAlertThreshold = defaultSafetyAlertThreshold
	}
	if opts.Logger == nil {
		opts.Logger = fitcoach.NewNoOpConsultationLogger()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Extractor == nil {
		opts.Extractor = actions.NewKeywordExtractor()
	}
	if opts.Router == nil {
		opts.Router = NewRouter(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}

	ins, err := newInstruments(opts.MeterProvider.Meter(fitcoach.InstrumentationName))
	if err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}

	return &Coordinator{
		llm:           client,
		toolProvider:  toolProvider,
		maxIterations: opts.MaxIterations,
		historyLimit:  opts.HistoryLimit,
		threshold:     opts.SafetyAlertThreshold,
		timeout:       opts.ConsultTimeout,
		maxConcurrent: opts.MaxConcurrent,
		logger:        opts.Logger,
		history:       opts.History,
		cache:         opts.Cache,
		notifier:      opts.Notifier,
		pipeline:      actions.NewPipeline(opts.Extractor),
		router:        opts.Router,
		now:           opts.Now,
		tracer:        opts.TracerProvider.Tracer(fitcoach.InstrumentationName),
		ins:           ins,
	}, nil
}

// Chat answers one user message.
func (c *Coordinator) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	userID := strings.TrimSpace(req.UserID)
	message := strings.TrimSpace(req.Message)
	if userID == "" {
		return ChatReply{}, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if message == "" {
		return ChatReply{}, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	ctx, span := c.tracer.Start(ctx, "Coordinator.Chat", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	start := time.Now()
	c.ins.requests.Add(ctx, 1)
	defer func() { c.ins.chatTime.Record(ctx, time.Since(start).Seconds()) }()

	slog.Info("COORDINATOR: Starting chat", "user_id", userID, "message_len", len(message))

	key := CacheKey(userID, message)
	if reply, ok := c.cached(ctx, key); ok {
		c.ins.cacheHits.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		slog.Info("COORDINATOR: Reply served from cache", "user_id", userID)
		return reply, nil
	}

	history := c.recentHistory(ctx, userID)
	agents := c.router.Route(message)
	span.SetAttributes(attribute.Int("agents.count", len(agents)))
	slog.Info("COORDINATOR: Routed message", "user_id", userID, "agents", agents)

	responses, err := c.consultAll(tools.WithUserID(ctx, userID), agents, message, history)
	if err != nil {
		span.SetStatus(codes.Error, "no specialist replied")
		span.RecordError(err)
		return ChatReply{}, err
	}

	items, err := c.pipeline.Rank(ctx, responses, actions.ConversationContext{
		UserID:          userID,
		UserMessage:     message,
		ConsultedAgents: agents,
	})
	if err != nil {
		span.SetStatus(codes.Error, "ranking failed")
		span.RecordError(err)
		return ChatReply{}, fmt.Errorf("rank actions: %w", err)
	}
	c.ins.actions.Record(ctx, int64(len(items)))

	reply := ChatReply{
		Reply:     joinReplies(responses),
		Agents:    responses,
		Actions:   items,
		CreatedAt: c.now().UTC(),
	}

	c.persist(ctx, userID, message, agents, reply)
	c.alertIfUnsafe(ctx, userID, responses)
	c.store(ctx, key, reply)

	slog.Info("COORDINATOR: Chat complete", "user_id", userID, "agents_replied", len(responses), "actions", len(items))
	return reply, nil
}

// consultAll runs the specialists concurrently. Results keep routing order;
// failed specialists are dropped.
func (c *Coordinator) consultAll(ctx context.Context, agents []actions.AgentType, message string, history []chat.Exchange) ([]actions.AgentResponse, error) {
	type result struct {
		resp actions.AgentResponse
		err  error
	}
	results := make([]result, len(agents))

	var g errgroup.Group
	if c.maxConcurrent > 0 {
		g.SetLimit(c.maxConcurrent)
	}
	for i, agent := range agents {
		g.Go(func() error {
			cctx := ctx
			if c.timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}
			resp, err := c.consult(cctx, agent, message, history)
			results[i] = result{resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var responses []actions.AgentResponse
	var errs []error
	for i, r := range results {
		if r.err != nil {
			slog.Warn("COORDINATOR: Specialist failed, skipping", "agent", agents[i], "error", r.err)
			errs = append(errs, r.err)
			continue
		}
		responses = append(responses, r.resp)
	}
	if len(responses) == 0 {
		return nil, errors.Join(append([]error{ErrNoReply}, errs...)...)
	}
	return responses, nil
}

func (c *Coordinator) cached(ctx context.Context, key string) (ChatReply, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("COORDINATOR: Cache lookup failed", "error", err)
		return ChatReply{}, false
	}
	if !ok {
		return ChatReply{}, false
	}
	var reply ChatReply
	if err := json.Unmarshal(data, &reply); err != nil {
		slog.Warn("COORDINATOR: Dropping undecodable cache entry", "error", err)
		return ChatReply{}, false
	}
	reply.Cached = true
	return reply, true
}

func (c *Coordinator) store(ctx context.Context, key string, reply ChatReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		slog.Warn("COORDINATOR: Could not encode reply for cache", "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, data); err != nil {
		slog.Warn("COORDINATOR: Cache store failed", "error", err)
	}
}

func (c *Coordinator) recentHistory(ctx context.Context, userID string) []chat.Exchange {
	if c.history == nil || c.historyLimit <= 0 {
		return nil
	}
	exs, err := c.history.Recent(ctx, userID, c.historyLimit)
	if err != nil {
		slog.Warn("COORDINATOR: Could not load chat history", "user_id", userID, "error", err)
		return nil
	}
	return exs
}

func (c *Coordinator) persist(ctx context.Context, userID, message string, agents []actions.AgentType, reply ChatReply) {
	if c.history == nil {
		return
	}
	err := c.history.Append(ctx, chat.Exchange{
		UserID:      userID,
		UserMessage: message,
		Reply:       reply.Reply,
		Agents:      agents,
		Actions:     reply.Actions,
		CreatedAt:   reply.CreatedAt,
	})
	if err != nil {
		slog.Error("COORDINATOR: Failed to persist exchange", "user_id", userID, "error", err)
	}
}

func (c *Coordinator) alertIfUnsafe(ctx context.Context, userID string, responses []actions.AgentResponse) {
	if c.notifier == nil {
		return
	}
	for _, r := range responses {
		if r.AgentType != actions.AgentFormSafety || r.Confidence < c.threshold {
			continue
		}
		slog.Warn("COORDINATOR: Safety concern flagged", "user_id", userID, "confidence", r.Confidence)
		if err := c.notifier.PostSafetyAlert(ctx, userID, r); err != nil {
			slog.Error("COORDINATOR: Failed to send safety alert", "user_id", userID, "error", err)
			continue
		}
		c.ins.safetyAlerts.Add(ctx, 1)
	}
}

// joinReplies concatenates specialist messages in the order given, which is
// safety first.
func joinReplies(responses []actions.AgentResponse) string {
	parts := make([]string, 0, len(responses))
	for _, r := range responses {
		parts = append(parts, r.Message)
	}
	return strings.Join(parts, "\n\n")
}

// CacheKey identifies a user's message independent of case and spacing.
// Chat history is not part of the key: a hit returns the reply computed
// against the history at the time it was cached, and the repeated exchange
// is not appended to history.
func CacheKey(userID, message string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	sum := sha256.Sum256([]byte(userID + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}
