package state

import (
	"fmt"
	"strings"
)

// AgentName names one state of the trip-planning handoff machine.
type AgentName string

const (
	AgentUserPreferences     AgentName = "user_preferences_agent"
	AgentDestinationResearch AgentName = "destination_research_agent"
	AgentItinerary           AgentName = "itinerary_agent"
	AgentBooking             AgentName = "booking_agent"
	AgentSummary             AgentName = "summary_agent"
)

// InitialAgent is the agent every new conversation starts with.
const InitialAgent = AgentUserPreferences

// AllAgents lists the machine states in conversation order.
var AllAgents = []AgentName{
	AgentUserPreferences,
	AgentDestinationResearch,
	AgentItinerary,
	AgentBooking,
	AgentSummary,
}

var agentAliases = map[string]AgentName{
	"preferences": AgentUserPreferences,
	"research":    AgentDestinationResearch,
	"destination": AgentDestinationResearch,
	"planner":     AgentItinerary,
	"planning":    AgentItinerary,
}

func (a AgentName) Valid() bool {
	for _, known := range AllAgents {
		if a == known {
			return true
		}
	}
	return false
}

func (a AgentName) String() string {
	return string(a)
}

// ParseAgentName accepts full agent names ("itinerary_agent") and the short
// keys used by the textual HANDOFF protocol ("itinerary").
func ParseAgentName(raw string) (AgentName, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	if key == "" {
		return "", fmt.Errorf("%w: empty agent name", ErrUnknownAgentName)
	}
	if alias, ok := agentAliases[key]; ok {
		return alias, nil
	}
	if !strings.HasSuffix(key, "_agent") {
		key += "_agent"
	}
	name := AgentName(key)
	if !name.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgentName, raw)
	}
	return name, nil
}
