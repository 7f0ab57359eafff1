package prompt

import (
	_ "embed"
	"strings"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

var (
	//go:embed template/protocol.txt
	protocolRaw string

	//go:embed template/user_preferences.txt
	userPreferencesRaw string

	//go:embed template/destination_research.txt
	destinationResearchRaw string

	//go:embed template/itinerary.txt
	itineraryRaw string

	//go:embed template/booking.txt
	bookingRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// PromptSet holds the system prompt of every agent. Prompts are FString
// templates, so literal braces are doubled.
type PromptSet struct {
	Protocol            string
	UserPreferences     string
	DestinationResearch string
	Itinerary           string
	Booking             string
	Summary             string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Protocol:            strings.TrimSpace(protocolRaw),
		UserPreferences:     strings.TrimSpace(userPreferencesRaw),
		DestinationResearch: strings.TrimSpace(destinationResearchRaw),
		Itinerary:           strings.TrimSpace(itineraryRaw),
		Booking:             strings.TrimSpace(bookingRaw),
		Summary:             strings.TrimSpace(summaryRaw),
	}
}

// For returns the full system prompt of an agent: its instructions followed
// by the shared reply protocol. Unknown agents get an empty string.
func (p PromptSet) For(name statex.AgentName) string {
	var body string
	switch name {
	case statex.AgentUserPreferences:
		body = p.UserPreferences
	case statex.AgentDestinationResearch:
		body = p.DestinationResearch
	case statex.AgentItinerary:
		body = p.Itinerary
	case statex.AgentBooking:
		body = p.Booking
	case statex.AgentSummary:
		body = p.Summary
	}
	if body == "" {
		return ""
	}
	return body + "\n\n" + p.Protocol
}
