package state

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatItinerary renders an itinerary as plain text for replies and prompts.
func FormatItinerary(it *ItineraryOutput) string {
	if it == nil {
		return "No itinerary yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trip to %s, %s to %s (%d days)\n", it.Destination, it.StartDate, it.EndDate, it.DurationDays)
	if it.Description != "" {
		b.WriteString(it.Description)
		b.WriteString("\n")
	}
	for _, d := range it.Days {
		fmt.Fprintf(&b, "\nDay %d (%s) - %s\n", d.DayNumber, d.Date, d.Location)
		if len(d.Activities) == 0 {
			b.WriteString("  - free day\n")
		}
		for _, a := range d.Activities {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
		if d.Transportation != nil && *d.Transportation != "" {
			fmt.Fprintf(&b, "  Getting around: %s\n", *d.Transportation)
		}
		b.WriteString(formatAccommodation(d.Accommodation))
		if d.Notes != nil && *d.Notes != "" {
			fmt.Fprintf(&b, "  Notes: %s\n", *d.Notes)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAccommodation(r *AccommodationResult) string {
	switch {
	case r == nil:
		return ""
	case r.Failed:
		return "  Stay: hotel search unavailable, will retry later\n"
	case len(r.Offers) == 0:
		return "  Stay: no hotels found in budget\n"
	}
	best := r.Offers[0]
	name := best.HotelName
	if name == "" {
		name = "hotel #" + strconv.FormatInt(best.HotelID, 10)
	}
	return fmt.Sprintf("  Stay: %s, %.2f %s/night (%d options)\n", name, best.NightlyPrice, best.Currency, len(r.Offers))
}

// Summary lists the known preferences, one per line, for agent prompts.
func (c *ConversationContext) Summary() string {
	if c == nil {
		return ""
	}
	unknown := "unknown"
	field := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return unknown
		}
		return v
	}

	start, end := unknown, unknown
	if c.StartDate != nil {
		start = c.StartDate.String()
	}
	if c.EndDate != nil {
		end = c.EndDate.String()
	}
	budget := unknown
	if c.Budget != nil {
		budget = c.Budget.String()
	}
	people := unknown
	if c.NumberOfPeople > 0 {
		people = strconv.Itoa(c.NumberOfPeople)
	}

	lines := []string{
		"destination: " + field(c.Destination),
		"start_date: " + start,
		"end_date: " + end,
		"budget: " + budget,
		"travel_style: " + field(c.TravelStyle),
		"number_of_people: " + people,
		"active_agent: " + c.ActiveAgent.String(),
	}
	if c.Itinerary != nil {
		lines = append(lines, "itinerary:\n"+FormatItinerary(c.Itinerary))
	}
	return strings.Join(lines, "\n")
}
