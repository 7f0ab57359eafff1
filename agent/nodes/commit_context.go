package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// CommitContext publishes the working context. A turn whose caller already
// left is abandoned here, before anything becomes visible.
func CommitContext(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in.Context.UpdatedAt = in.Now
	if err := in.Context.Validate(); err != nil {
		return nil, fmt.Errorf("context validation failed: %w", err)
	}
	if err := store.Save(context.WithoutCancel(ctx), in.Context); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("session mirror save failed")
		in.warn("session not mirrored: " + err.Error())
	}
	return in, nil
}
