package contract

import (
	"fmt"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

var transitions = map[statex.AgentName][]statex.AgentName{
	statex.AgentUserPreferences: {
		statex.AgentDestinationResearch,
	},
	statex.AgentDestinationResearch: {
		statex.AgentItinerary,
		statex.AgentUserPreferences,
	},
	statex.AgentItinerary: {
		statex.AgentBooking,
		statex.AgentSummary,
		statex.AgentUserPreferences,
	},
	statex.AgentBooking: {
		statex.AgentSummary,
		statex.AgentItinerary,
		statex.AgentUserPreferences,
	},
	statex.AgentSummary: {
		statex.AgentUserPreferences,
		statex.AgentDestinationResearch,
		statex.AgentItinerary,
		statex.AgentBooking,
	},
}

// AllowedTargets returns a copy of the targets reachable from an agent.
func AllowedTargets(from statex.AgentName) []statex.AgentName {
	return append([]statex.AgentName(nil), transitions[from]...)
}

// CheckTransition validates a handoff from one agent. Staying is always allowed.
func CheckTransition(from statex.AgentName, h Handoff) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, from)
	}
	if h.IsStay() {
		return nil
	}
	if !h.Target.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, h.Target)
	}
	for _, allowed := range transitions[from] {
		if allowed == h.Target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, h.Target)
}

// RequiresDates reports whether an agent can only run with a valid date range.
func RequiresDates(name statex.AgentName) bool {
	switch name {
	case statex.AgentItinerary, statex.AgentBooking, statex.AgentSummary:
		return true
	default:
		return false
	}
}
