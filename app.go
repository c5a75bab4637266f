package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	channelx "github.com/tanpawarit/chative-lead-qualifier/agent/channel/telegram"
	dialoguex "github.com/tanpawarit/chative-lead-qualifier/agent/dialogue"
	leadsx "github.com/tanpawarit/chative-lead-qualifier/agent/leads"
	llmx "github.com/tanpawarit/chative-lead-qualifier/agent/llm"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
	dedupex "github.com/tanpawarit/chative-lead-qualifier/pkg/dedupe"
	metricsx "github.com/tanpawarit/chative-lead-qualifier/pkg/metrics"
	opsx "github.com/tanpawarit/chative-lead-qualifier/pkg/ops"
	telegramx "github.com/tanpawarit/chative-lead-qualifier/pkg/telegram"
)

const shutdownTimeout = 10 * time.Second

type appConfig struct {
	LLM      llmx.Config
	Leads    leadsx.Config
	Telegram telegramx.Config
	Dedupe   dedupex.Config
	Ops      opsx.Config
}

type app struct {
	bot         *tgbotapi.BotAPI
	handler     *channelx.Handler
	ops         *opsx.Server
	pollTimeout int

	closers []io.Closer
}

// newApp wires every collaborator. On error whatever was already built is closed.
func newApp(ctx context.Context, cfg appConfig, reg prometheus.Registerer, gatherer prometheus.Gatherer) (_ *app, err error) {
	a := &app{pollTimeout: cfg.Telegram.PollTimeoutSeconds()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	metrics := metricsx.NewBotMetrics(reg)

	gateway, err := llmx.NewGateway(ctx, cfg.LLM, llmx.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("initialize llm gateway: %w", err)
	}

	sink, err := leadsx.New(cfg.Leads, leadsx.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("initialize lead sink: %w", err)
	}
	a.closers = append(a.closers, sink)

	engine, err := dialoguex.New(
		statex.NewMemoryStore(),
		gateway,
		sink,
		dialoguex.Config{LeadSource: cfg.Leads.Source},
		dialoguex.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize dialogue engine: %w", err)
	}

	seen, err := dedupex.New(ctx, cfg.Dedupe)
	if err != nil {
		return nil, fmt.Errorf("initialize update dedupe: %w", err)
	}
	if closer, ok := seen.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}

	bot, err := telegramx.NewBot(cfg.Telegram)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}
	log.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")

	a.bot = bot
	a.handler = channelx.NewHandler(bot, engine,
		channelx.WithDedupe(seen),
		channelx.WithMetrics(metrics),
	)
	a.ops = opsx.NewServer(cfg.Ops, opsx.NewRouter(sink, gatherer))
	return a, nil
}

// run polls updates until ctx is done, then drains chat queues and stops the ops server.
func (a *app) run(ctx context.Context) {
	a.ops.Start()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = a.pollTimeout
	updates := a.bot.GetUpdatesChan(u)

	log.Info().Msg("bot started")
	a.handler.Run(ctx, updates)

	log.Info().Msg("shutting down")
	a.bot.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server shutdown")
	}
}

// close releases collaborators in reverse construction order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Error().Err(err).Msg("close collaborator")
		}
	}
	a.closers = nil
}
