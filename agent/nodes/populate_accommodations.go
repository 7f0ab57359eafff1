package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// LodgingFiller searches lodging for every itinerary day that lacks it and
// records the outcome on the day. It only fails when ctx ends.
type LodgingFiller interface {
	FillAccommodations(ctx context.Context, c *statex.ConversationContext) (int, error)
}

func PopulateAccommodations(
	ctx context.Context,
	in *GraphState,
	filler LodgingFiller,
) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if filler == nil || in.Rerouted || !needsLodging(in.Actor, in.Context) {
		return in, nil
	}

	if _, err := filler.FillAccommodations(ctx, in.Context); err != nil {
		return nil, err
	}
	return in, nil
}

func needsLodging(actor statex.AgentName, c *statex.ConversationContext) bool {
	if c.Itinerary == nil {
		return false
	}
	if actor != statex.AgentItinerary && c.ActiveAgent != statex.AgentItinerary {
		return false
	}
	return len(c.Itinerary.DaysNeedingAccommodation()) > 0
}
