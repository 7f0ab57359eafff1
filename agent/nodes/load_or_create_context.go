package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

func LoadOrCreateContext(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	c, created, err := loadOrCreateContext(ctx, store, in.ConversationID, in.Now)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("session store load failed, starting fresh")
		in.warn("session store unavailable: " + err.Error())
	}
	in.Context = c
	in.Created = created
	return in, nil
}

// loadOrCreateContext always returns a usable context; err reports a store
// failure that forced a fresh one.
func loadOrCreateContext(
	ctx context.Context,
	store statex.Store,
	conversationID string,
	now time.Time,
) (*statex.ConversationContext, bool, error) {
	c, err := store.Load(ctx, conversationID)
	if err == nil && c != nil {
		return c.Clone(), false, nil
	}
	fresh := statex.NewConversationContext(conversationID, now)
	if err == nil || errors.Is(err, statex.ErrContextNotFound) {
		return fresh, true, nil
	}
	return fresh, true, err
}
