package orchestratornode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
)

// ApplyHandoff performs at most one transition. Targets outside the
// transition table fail the turn before anything is committed.
func ApplyHandoff(in *GraphState) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if in.Rerouted {
		return in, nil
	}

	h := in.Response.Handoff
	if err := contractx.CheckTransition(in.Actor, h); err != nil {
		return nil, err
	}
	if h.IsStay() {
		return in, nil
	}

	log.Info().
		Str("conversation_id", in.ConversationID).
		Str("from", in.Actor.String()).
		Str("to", h.Target.String()).
		Msg("agent handoff")
	in.Context.ActiveAgent = h.Target
	return in, nil
}
