package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	promptx "github.com/tanpawarit/chative-lead-qualifier/agent/prompt"
	metricsx "github.com/tanpawarit/chative-lead-qualifier/pkg/metrics"
	openaicompatx "github.com/tanpawarit/chative-lead-qualifier/pkg/openaicompat"
)

const (
	purposeRecommendation = "recommendation"
	purposeAsk            = "ask"

	clientInfoHeader = "\n\nИнформация о клиенте:\n"
)

var _ contractx.Gateway = (*Gateway)(nil)

// Gateway wraps the completion endpoint with a fixed system prompt.
// Every failure resolves to the configured fallback text; nothing is retried.
type Gateway struct {
	completer Completer
	prompts   promptx.PromptSet
	timeout   time.Duration
	metrics   *metricsx.BotMetrics
}

type GatewayOption func(*Gateway)

// WithCompleter replaces the configured completer.
func WithCompleter(c Completer) GatewayOption {
	return func(g *Gateway) {
		if c != nil {
			g.completer = c
		}
	}
}

func WithMetrics(m *metricsx.BotMetrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func NewGateway(ctx context.Context, cfg Config, opts ...GatewayOption) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Gateway{
		prompts: promptx.LoadPromptSet().WithFallback(cfg.FallbackText),
		timeout: cfg.Timeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	if g.completer != nil {
		return g, nil
	}

	switch cfg.clientKind() {
	case ClientOpenAI:
		client := openaicompatx.NewClient(cfg.ClientConfig())
		if client == nil {
			return nil, fmt.Errorf("%w: failed to initialize llm client", contractx.ErrValidation)
		}
		g.completer = newChatCompleter(client, cfg)
	default:
		m, err := cfg.ModelConfig().New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create chat model: %v", contractx.ErrModelInvoke, err)
		}
		g.completer = newModelCompleter(m)
	}
	return g, nil
}

// FallbackText is the text substituted for a failed completion.
func (g *Gateway) FallbackText() string {
	return g.prompts.Fallback
}

func (g *Gateway) RequestRecommendation(ctx context.Context, contextText string) contractx.Recommendation {
	user := g.prompts.Recommendation + clientInfoHeader + contextText

	text, err := g.complete(ctx, user)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("recommendation request failed, using fallback")
		g.metrics.ObserveLLMCall(purposeRecommendation, true)
		return contractx.Recommendation{Text: g.prompts.Fallback, Fallback: true}
	}

	log.Ctx(ctx).Info().Int("length", len([]rune(text))).Msg("recommendation received")
	g.metrics.ObserveLLMCall(purposeRecommendation, false)
	return contractx.Recommendation{Text: text}
}

func (g *Gateway) AnswerFreeform(ctx context.Context, question string) string {
	text, err := g.complete(ctx, question)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("freeform answer failed, using fallback")
		g.metrics.ObserveLLMCall(purposeAsk, true)
		return g.prompts.Fallback
	}

	log.Ctx(ctx).Info().Int("length", len([]rune(text))).Msg("freeform answer received")
	g.metrics.ObserveLLMCall(purposeAsk, false)
	return text
}

func (g *Gateway) complete(ctx context.Context, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, g.prompts.System, user)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", contractx.ErrEmptyCompletion
	}
	return text, nil
}
