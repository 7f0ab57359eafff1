package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

var handoffReplies = map[statex.AgentName]string{
	statex.AgentUserPreferences:     "Let's go over your travel preferences again.",
	statex.AgentDestinationResearch: "Let me look into your destination.",
	statex.AgentItinerary:           "Let me put the day-by-day plan together.",
	statex.AgentBooking:             "Let me sort out the bookings.",
	statex.AgentSummary:             "Here is where your trip stands.",
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Context == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" && in.Context.ActiveAgent != in.Actor {
		reply = handoffReplies[in.Context.ActiveAgent]
	}
	if reply == "" && in.Context.Itinerary != nil {
		reply = statex.FormatItinerary(in.Context.Itinerary)
	}
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: agent=%s returned empty message", contractx.ErrSchemaViolation, in.Actor)
	}

	return GraphOutput{
		ConversationID: in.ConversationID,
		Reply:          reply,
		Agent:          in.Context.ActiveAgent,
		Itinerary:      in.Context.Itinerary.Clone(),
		Warnings:       in.Warnings,
	}, nil
}
