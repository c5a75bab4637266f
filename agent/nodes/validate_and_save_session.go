package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
	metricsx "github.com/tanpawarit/chative-lead-qualifier/pkg/metrics"
)

func ValidateAndSaveSession(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	metrics *metricsx.BotMetrics,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.Touch(in.Now)
	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}

	if in.FromStage != in.Session.Stage {
		log.Ctx(ctx).Info().
			Int64("chat_id", in.ChatID).
			Str("from", string(in.FromStage)).
			Str("to", string(in.Session.Stage)).
			Msg("stage changed")
		metrics.ObserveStageTransition(string(in.FromStage), string(in.Session.Stage))
	}
	return in, nil
}
