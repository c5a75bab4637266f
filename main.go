package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	leadsx "github.com/tanpawarit/chative-lead-qualifier/agent/leads"
	llmx "github.com/tanpawarit/chative-lead-qualifier/agent/llm"
	configx "github.com/tanpawarit/chative-lead-qualifier/pkg/config"
	dedupex "github.com/tanpawarit/chative-lead-qualifier/pkg/dedupe"
	_ "github.com/tanpawarit/chative-lead-qualifier/pkg/logger/autoload"
	opsx "github.com/tanpawarit/chative-lead-qualifier/pkg/ops"
	telegramx "github.com/tanpawarit/chative-lead-qualifier/pkg/telegram"
)

func main() {
	cfg := appConfig{
		LLM:      *configx.MustNew[llmx.Config]("LLM"),
		Leads:    *configx.MustNew[leadsx.Config]("LEADS"),
		Telegram: *configx.MustNew[telegramx.Config]("TELEGRAM"),
		Dedupe:   *configx.MustNew[dedupex.Config]("DEDUPE"),
		Ops:      *configx.MustNew[opsx.Config]("HTTP"),
	}

	a, err := newApp(context.Background(), cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize bot")
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("leads_backend", cfg.Leads.Backend).Msg("starting")
	a.run(ctx)
}
