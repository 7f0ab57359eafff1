package contract

import (
	"time"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// Handoff is either "stay" (zero value) or a transfer to one target agent.
type Handoff struct {
	Target statex.AgentName `json:"target,omitempty"`
}

func Stay() Handoff { return Handoff{} }

func TransitionTo(target statex.AgentName) Handoff {
	return Handoff{Target: target}
}

func (h Handoff) IsStay() bool { return h.Target == "" }

type AgentRequest struct {
	UserMessage string                      `json:"user_message"`
	Context     *statex.ConversationContext `json:"context"`
	Now         time.Time                   `json:"now"`
}

// AgentResponse is everything an agent may change in one step.
type AgentResponse struct {
	Message      string                 `json:"message"`
	Handoff      Handoff                `json:"handoff"`
	ContextPatch *statex.ContextPatch   `json:"context_patch,omitempty"`
	Itinerary    *statex.ItineraryDraft `json:"itinerary,omitempty"`
	DayUpdates   []statex.DayUpdate     `json:"day_updates,omitempty"`
}
