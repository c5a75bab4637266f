package dialogue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	nodex "github.com/tanpawarit/chative-lead-qualifier/agent/nodes"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
	metricsx "github.com/tanpawarit/chative-lead-qualifier/pkg/metrics"
)

type Config struct {
	LeadSource string
}

// Inbound is one message routed to the engine by the transport.
type Inbound struct {
	ChatID     int64
	Command    contractx.Command
	Text       string
	ClientName string
}

// Engine runs dialogue turns. Turns for one chat are serialized; distinct chats run in parallel.
type Engine struct {
	store         statex.Store
	gateway       contractx.Gateway
	collaborators nodex.Collaborators
	locker        *statex.Locker
	metrics       *metricsx.BotMetrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithMetrics(m *metricsx.BotMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(
	store statex.Store,
	gateway contractx.Gateway,
	sink contractx.LeadSink,
	cfg Config,
	opts ...Option,
) (*Engine, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if gateway == nil {
		return nil, errors.New("llm gateway is required")
	}
	if sink == nil {
		return nil, errors.New("lead sink is required")
	}

	source := strings.TrimSpace(cfg.LeadSource)
	if source == "" {
		source = "telegram"
	}

	e := &Engine{
		store:   store,
		gateway: gateway,
		collaborators: nodex.Collaborators{
			Gateway:    gateway,
			Sink:       sink,
			LeadSource: source,
		},
		locker: statex.NewLocker(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	graphRunner, err := e.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.graphRunner = graphRunner

	return e, nil
}

// Handle runs one turn and returns the replies to deliver in order.
// Blank text without a command yields no replies and no error.
func (e *Engine) Handle(ctx context.Context, in Inbound) ([]contractx.Reply, error) {
	if in.Command == contractx.CommandNone && strings.TrimSpace(in.Text) == "" {
		return nil, nil
	}

	logger := log.Ctx(ctx).With().
		Str("turn_id", uuid.NewString()).
		Int64("chat_id", in.ChatID).
		Logger()
	ctx = logger.WithContext(ctx)

	unlock := e.locker.Lock(in.ChatID)
	defer unlock()

	start := time.Now()
	out, err := e.graphRunner.Invoke(ctx, nodex.GraphInput{
		ChatID:     in.ChatID,
		Command:    in.Command,
		Text:       in.Text,
		ClientName: in.ClientName,
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.ObserveTurn(string(in.Command), status, time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Msg("dialogue turn failed")
		return nil, err
	}
	logger.Debug().Str("stage", string(out.Stage)).Int("replies", len(out.Replies)).Msg("dialogue turn handled")
	return out.Replies, nil
}

// Ask answers a direct question regardless of the chat's session.
func (e *Engine) Ask(ctx context.Context, question string) contractx.Reply {
	return contractx.Reply{Text: e.gateway.AnswerFreeform(ctx, strings.TrimSpace(question))}
}
