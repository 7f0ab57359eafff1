package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	storagex "github.com/tanpawarit/Chative-Trip-Planner/agent/storage"
)

// SaveItinerary persists the committed itinerary. Failures are warnings; the
// turn already happened.
func SaveItinerary(
	ctx context.Context,
	in *GraphState,
	store storagex.ItineraryStore,
) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if store == nil || in.Context.Itinerary == nil {
		return in, nil
	}

	if err := store.Save(context.WithoutCancel(ctx), in.ConversationID, in.Context.Itinerary); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("itinerary save failed")
		in.warn("itinerary not saved: " + err.Error())
	}
	return in, nil
}
