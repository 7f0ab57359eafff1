package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

const (
	NodeRejectDates   = "reject_dates"
	NodeDispatchAgent = "dispatch_agent"
)

// GuardDates records why the active agent cannot run with the current dates.
func GuardDates(in *GraphState) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if !in.Context.ActiveAgent.Valid() {
		return nil, fmt.Errorf("%w: active agent %q", contractx.ErrUnknownAgent, in.Context.ActiveAgent)
	}

	in.DateIssue = nil
	if contractx.RequiresDates(in.Context.ActiveAgent) {
		if _, _, _, err := in.Context.DateRange(); err != nil {
			in.DateIssue = err
		}
	}
	return in, nil
}

// RouteDates picks the next node after GuardDates.
func RouteDates(ctx context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.DateIssue != nil {
		return NodeRejectDates, nil
	}
	return NodeDispatchAgent, nil
}

// RejectDates sends the conversation back to preference gathering without
// running the agent that needed the dates.
func RejectDates(in *GraphState) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	in.Actor = in.Context.ActiveAgent
	reroute(in, dateCorrection(in.DateIssue))
	return in, nil
}

func reroute(in *GraphState, reply string) {
	log.Info().
		Str("conversation_id", in.ConversationID).
		Str("agent", in.Actor.String()).
		Msg("routing back to user preferences")

	in.Context.ActiveAgent = statex.AgentUserPreferences
	in.Rerouted = true
	in.Reply = reply
}

func dateCorrection(err error) string {
	switch {
	case errors.Is(err, statex.ErrDatesInverted):
		return "Your trip ends before it starts. Could you check the start and end dates (YYYY-MM-DD)?"
	case errors.Is(err, statex.ErrDatesMissing):
		return "I need your travel dates before I can plan the days. When does the trip start and end?"
	case errors.Is(err, statex.ErrInvalidDate):
		return "I could not read one of the dates. Please use the YYYY-MM-DD format."
	case errors.Is(err, statex.ErrInvalidBudget):
		return "I could not understand the budget. Try a label like mid-range or an amount such as $1000 total."
	case errors.Is(err, statex.ErrInvalidPeople):
		return "How many people are travelling? The number needs to be at least one."
	case errors.Is(err, statex.ErrDestinationMissing):
		return "Where would you like to go? I need a destination before planning the itinerary."
	default:
		return "Some trip details need another look before I can continue. Could you confirm your destination and dates?"
	}
}
