package nodes

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
)

// LoadOrCreateSession resolves the session a turn operates on. Reset, a non-resuming
// start, and any message after done replace the stored session with a new one.
func LoadOrCreateSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	existing, err := store.Load(ctx, in.ChatID)
	switch {
	case err == nil:
		in.FromStage = existing.Stage
	case errors.Is(err, statex.ErrSessionNotFound):
		existing = nil
	default:
		return nil, err
	}

	if needsFreshSession(in.Command, existing) {
		in.Session = statex.NewSession(in.ChatID, in.Now)
		in.Fresh = true
		return in, nil
	}

	in.Session = existing
	return in, nil
}

func needsFreshSession(cmd contractx.Command, existing *statex.Session) bool {
	if existing == nil {
		return true
	}
	switch cmd {
	case contractx.CommandReset:
		return true
	case contractx.CommandStart:
		return !existing.IsReturning()
	}
	return existing.Stage == statex.StageDone
}
