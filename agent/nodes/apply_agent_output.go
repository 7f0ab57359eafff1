package orchestratornode

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// ApplyAgentOutput merges the agent's patch, draft and day edits into the
// working context. Input faults route back to preference gathering.
func ApplyAgentOutput(in *GraphState) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if in.Rerouted {
		return in, nil
	}

	resp := in.Response
	before := in.Context.Clone()

	if resp.ContextPatch != nil {
		if err := in.Context.ApplyPatch(*resp.ContextPatch); err != nil {
			if errors.Is(err, statex.ErrConversationIDImmutable) {
				return nil, fmt.Errorf("%w: agent=%s: %v", contractx.ErrSchemaViolation, in.Actor, err)
			}
			reroute(in, dateCorrection(err))
			return in, nil
		}
	}
	if _, _, _, err := in.Context.DateRange(); errors.Is(err, statex.ErrDatesInverted) {
		reroute(in, dateCorrection(err))
		return in, nil
	}

	if resp.Itinerary == nil && in.Context.Itinerary != nil && tripMoved(before, in.Context) {
		if err := realignItinerary(in.Context); err != nil {
			in.warn("itinerary not realigned: " + err.Error())
		}
	}
	if lodgingInputsChanged(before, in.Context) && in.Context.Itinerary != nil {
		clearAccommodations(in.Context.Itinerary)
	}

	if resp.Itinerary != nil {
		built, err := statex.BuildItinerary(in.Context, *resp.Itinerary)
		if err != nil {
			reroute(in, dateCorrection(err))
			return in, nil
		}
		carryAccommodations(in.Context.Itinerary, built)
		in.Context.Itinerary = built
	}

	for _, u := range resp.DayUpdates {
		if in.Context.Itinerary == nil {
			in.warn("day updates ignored: no itinerary yet")
			break
		}
		if err := in.Context.Itinerary.ApplyDayUpdate(u); err != nil {
			log.Warn().Err(err).Str("conversation_id", in.ConversationID).Int("day", u.DayNumber).Msg("day update rejected")
			in.warn(fmt.Sprintf("day %d update rejected: %v", u.DayNumber, err))
		}
	}
	return in, nil
}

func tripMoved(before, after *statex.ConversationContext) bool {
	return before.Destination != after.Destination ||
		!sameDate(before.StartDate, after.StartDate) ||
		!sameDate(before.EndDate, after.EndDate)
}

func lodgingInputsChanged(before, after *statex.ConversationContext) bool {
	if before.NumberOfPeople != after.NumberOfPeople {
		return true
	}
	switch {
	case before.Budget == nil && after.Budget == nil:
		return false
	case before.Budget == nil || after.Budget == nil:
		return true
	default:
		return *before.Budget != *after.Budget
	}
}

func sameDate(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// realignItinerary rebuilds the days over the new date range, keeping each
// day's content by position.
func realignItinerary(c *statex.ConversationContext) error {
	old := c.Itinerary
	draft := statex.ItineraryDraft{Description: old.Description}
	for _, d := range old.Days {
		loc := d.Location
		if loc == old.Destination {
			loc = ""
		}
		draft.Days = append(draft.Days, statex.DraftDay{
			Location:       loc,
			Activities:     d.Activities,
			Transportation: d.Transportation,
			Notes:          d.Notes,
		})
	}
	rebuilt, err := statex.BuildItinerary(c, draft)
	if err != nil {
		return err
	}
	carryAccommodations(old, rebuilt)
	c.Itinerary = rebuilt
	return nil
}

// carryAccommodations keeps lodging for days whose date and place did not change.
func carryAccommodations(from, to *statex.ItineraryOutput) {
	if from == nil || to == nil {
		return
	}
	for _, prev := range from.Days {
		if prev.Accommodation == nil {
			continue
		}
		for i := range to.Days {
			day := &to.Days[i]
			if day.Date == prev.Date && day.Location == prev.Location {
				day.Accommodation = prev.Accommodation.Clone()
			}
		}
	}
}

func clearAccommodations(it *statex.ItineraryOutput) {
	for i := range it.Days {
		it.Days[i].Accommodation = nil
	}
}
