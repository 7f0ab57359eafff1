package state

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ConversationContext is everything the planner knows about one conversation.
// Zero values mean "not provided yet".
type ConversationContext struct {
	ConversationID string           `json:"conversation_id"`
	Destination    string           `json:"destination,omitempty"`
	StartDate      *civil.Date      `json:"start_date,omitempty"`
	EndDate        *civil.Date      `json:"end_date,omitempty"`
	Budget         *BudgetSpec      `json:"budget,omitempty"`
	TravelStyle    string           `json:"travel_style,omitempty"`
	NumberOfPeople int              `json:"number_of_people,omitempty"`
	ActiveAgent    AgentName        `json:"active_agent"`
	Itinerary      *ItineraryOutput `json:"itinerary,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ContextPatch is a partial preference update. Nil fields are left alone.
// Dates use YYYY-MM-DD; Budget is free text understood by ParseBudget.
type ContextPatch struct {
	ConversationID *string `json:"conversation_id,omitempty"`
	Destination    *string `json:"destination,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	EndDate        *string `json:"end_date,omitempty"`
	Budget         *string `json:"budget,omitempty"`
	TravelStyle    *string `json:"travel_style,omitempty"`
	NumberOfPeople *int    `json:"number_of_people,omitempty"`
}

func NewConversationContext(id string, now time.Time) *ConversationContext {
	return &ConversationContext{
		ConversationID: id,
		ActiveAgent:    InitialAgent,
		UpdatedAt:      now.UTC(),
	}
}

// Empty reports whether the patch carries no field at all.
func (p ContextPatch) Empty() bool {
	return p.ConversationID == nil && p.Destination == nil && p.StartDate == nil &&
		p.EndDate == nil && p.Budget == nil && p.TravelStyle == nil && p.NumberOfPeople == nil
}

// ApplyPatch parses every field before assigning any, so a rejected patch
// leaves the context unchanged. Blank strings count as absent.
func (c *ConversationContext) ApplyPatch(p ContextPatch) error {
	if p.ConversationID != nil {
		if id := strings.TrimSpace(*p.ConversationID); id != "" && id != c.ConversationID {
			return fmt.Errorf("%w: %q -> %q", ErrConversationIDImmutable, c.ConversationID, id)
		}
	}

	start, err := parseOptionalDate("start_date", p.StartDate)
	if err != nil {
		return err
	}
	end, err := parseOptionalDate("end_date", p.EndDate)
	if err != nil {
		return err
	}

	var budget *BudgetSpec
	if p.Budget != nil && strings.TrimSpace(*p.Budget) != "" {
		spec, err := ParseBudget(*p.Budget)
		if err != nil {
			return err
		}
		budget = &spec
	}

	if p.NumberOfPeople != nil && *p.NumberOfPeople <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeople, *p.NumberOfPeople)
	}

	if p.Destination != nil {
		if dest := strings.TrimSpace(*p.Destination); dest != "" {
			c.Destination = dest
		}
	}
	if start != nil {
		c.StartDate = start
	}
	if end != nil {
		c.EndDate = end
	}
	if budget != nil {
		c.Budget = budget
	}
	if p.TravelStyle != nil {
		if style := strings.TrimSpace(*p.TravelStyle); style != "" {
			c.TravelStyle = style
		}
	}
	if p.NumberOfPeople != nil {
		c.NumberOfPeople = *p.NumberOfPeople
	}
	return nil
}

func parseOptionalDate(field string, raw *string) (*civil.Date, error) {
	if raw == nil {
		return nil, nil
	}
	text := strings.TrimSpace(*raw)
	if text == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidDate, field, text)
	}
	return &d, nil
}

// DateRange returns the trip dates and their inclusive day count.
func (c *ConversationContext) DateRange() (civil.Date, civil.Date, int, error) {
	if c.StartDate == nil || c.EndDate == nil {
		return civil.Date{}, civil.Date{}, 0, ErrDatesMissing
	}
	start, end := *c.StartDate, *c.EndDate
	if end.Before(start) {
		return civil.Date{}, civil.Date{}, 0, fmt.Errorf("%w: %s to %s", ErrDatesInverted, start, end)
	}
	return start, end, InclusiveDays(start, end), nil
}

// Guests is the party size used for lodging searches; two when unknown.
func (c *ConversationContext) Guests() int {
	if c.NumberOfPeople > 0 {
		return c.NumberOfPeople
	}
	return 2
}

func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	out := *c
	if c.StartDate != nil {
		d := *c.StartDate
		out.StartDate = &d
	}
	if c.EndDate != nil {
		d := *c.EndDate
		out.EndDate = &d
	}
	if c.Budget != nil {
		b := *c.Budget
		out.Budget = &b
	}
	out.Itinerary = c.Itinerary.Clone()
	return &out
}

func (c *ConversationContext) Validate() error {
	if strings.TrimSpace(c.ConversationID) == "" {
		return ErrInvalidConversationID
	}
	if !c.ActiveAgent.Valid() {
		return fmt.Errorf("%w: active agent %q", ErrUnknownAgentName, c.ActiveAgent)
	}
	if c.NumberOfPeople < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeople, c.NumberOfPeople)
	}
	if c.Budget != nil {
		if err := c.Budget.Validate(); err != nil {
			return err
		}
	}
	if c.Itinerary != nil {
		if err := c.Itinerary.Validate(); err != nil {
			return err
		}
	}
	return nil
}
