package state

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// ItineraryOutput is the persisted day-by-day plan of a conversation.
type ItineraryOutput struct {
	Destination  string     `json:"destination"`
	Description  string     `json:"description"`
	StartDate    civil.Date `json:"start_date"`
	EndDate      civil.Date `json:"end_date"`
	DurationDays int        `json:"duration_days"`
	Days         []DayPlan  `json:"itinerary"`
}

type DayPlan struct {
	Date           civil.Date           `json:"date"`
	DayNumber      int                  `json:"day_number"`
	Location       string               `json:"location"`
	Activities     []string             `json:"activities"`
	Transportation *string              `json:"transportation,omitempty"`
	Accommodation  *AccommodationResult `json:"accommodation,omitempty"`
	Notes          *string              `json:"notes,omitempty"`
}

// ItineraryDraft is the content an agent proposes for a wholesale itinerary.
// Dates and day numbers are derived from the conversation, never from the draft.
type ItineraryDraft struct {
	Description string     `json:"description"`
	Days        []DraftDay `json:"days"`
}

type DraftDay struct {
	Location       string   `json:"location,omitempty"`
	Activities     []string `json:"activities"`
	Transportation *string  `json:"transportation,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

// DayUpdate edits one day. Nil fields are left unchanged.
type DayUpdate struct {
	DayNumber          int      `json:"day_number"`
	Location           *string  `json:"location,omitempty"`
	Activities         []string `json:"activities,omitempty"`
	Transportation     *string  `json:"transportation,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
	ClearAccommodation bool     `json:"clear_accommodation,omitempty"`
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end civil.Date) int {
	return end.DaysSince(start) + 1
}

// BuildItinerary lays the draft over the conversation's date range: one day
// per calendar date, numbered from 1.
func BuildItinerary(c *ConversationContext, draft ItineraryDraft) (*ItineraryOutput, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil conversation", ErrInvalidItinerary)
	}
	destination := strings.TrimSpace(c.Destination)
	if destination == "" {
		return nil, ErrDestinationMissing
	}
	start, end, days, err := c.DateRange()
	if err != nil {
		return nil, err
	}

	out := &ItineraryOutput{
		Destination:  destination,
		Description:  strings.TrimSpace(draft.Description),
		StartDate:    start,
		EndDate:      end,
		DurationDays: days,
		Days:         make([]DayPlan, 0, days),
	}
	for i := 0; i < days; i++ {
		day := DayPlan{
			Date:       start.AddDays(i),
			DayNumber:  i + 1,
			Location:   destination,
			Activities: []string{},
		}
		if i < len(draft.Days) {
			d := draft.Days[i]
			if loc := strings.TrimSpace(d.Location); loc != "" {
				day.Location = loc
			}
			if d.Activities != nil {
				day.Activities = append([]string{}, d.Activities...)
			}
			day.Transportation = cloneString(d.Transportation)
			day.Notes = cloneString(d.Notes)
		}
		out.Days = append(out.Days, day)
	}
	return out, nil
}

func (it *ItineraryOutput) Validate() error {
	if it == nil {
		return fmt.Errorf("%w: nil itinerary", ErrInvalidItinerary)
	}
	if !it.StartDate.IsValid() || !it.EndDate.IsValid() {
		return fmt.Errorf("%w: start/end date", ErrInvalidDate)
	}
	if it.EndDate.Before(it.StartDate) {
		return ErrDatesInverted
	}
	if want := InclusiveDays(it.StartDate, it.EndDate); it.DurationDays != want {
		return fmt.Errorf("%w: duration_days=%d want %d", ErrInvalidItinerary, it.DurationDays, want)
	}
	if len(it.Days) > it.DurationDays {
		return fmt.Errorf("%w: %d days for a %d-day trip", ErrInvalidItinerary, len(it.Days), it.DurationDays)
	}
	for i, d := range it.Days {
		if d.DayNumber != i+1 {
			return fmt.Errorf("%w: day at index %d has day_number=%d", ErrInvalidItinerary, i, d.DayNumber)
		}
		if d.Date.Before(it.StartDate) || d.Date.After(it.EndDate) {
			return fmt.Errorf("%w: day %d date %s outside trip", ErrInvalidItinerary, d.DayNumber, d.Date)
		}
	}
	return nil
}

// Day returns a pointer into Days for the given 1-based day number.
func (it *ItineraryOutput) Day(dayNumber int) (*DayPlan, bool) {
	if it == nil || dayNumber < 1 || dayNumber > len(it.Days) {
		return nil, false
	}
	return &it.Days[dayNumber-1], true
}

// ApplyDayUpdate edits a single day. The edit is made on a copy and only
// swapped in when it succeeds, so other days are never touched.
func (it *ItineraryOutput) ApplyDayUpdate(u DayUpdate) error {
	current, ok := it.Day(u.DayNumber)
	if !ok {
		return fmt.Errorf("%w: day %d", ErrDayNotFound, u.DayNumber)
	}

	next := current.Clone()
	if u.Location != nil {
		loc := strings.TrimSpace(*u.Location)
		if loc == "" {
			return fmt.Errorf("%w: day %d location is empty", ErrInvalidItinerary, u.DayNumber)
		}
		if loc != next.Location {
			next.Accommodation = nil
		}
		next.Location = loc
	}
	if u.Activities != nil {
		next.Activities = append([]string{}, u.Activities...)
	}
	if u.Transportation != nil {
		next.Transportation = cloneString(u.Transportation)
	}
	if u.Notes != nil {
		next.Notes = cloneString(u.Notes)
	}
	if u.ClearAccommodation {
		next.Accommodation = nil
	}

	*current = next
	return nil
}

// SetAccommodation merges a lodging result into one day.
func (it *ItineraryOutput) SetAccommodation(dayNumber int, result AccommodationResult) error {
	day, ok := it.Day(dayNumber)
	if !ok {
		return fmt.Errorf("%w: day %d", ErrDayNotFound, dayNumber)
	}
	day.Accommodation = result.Clone()
	return nil
}

// DaysNeedingAccommodation lists day numbers with no lodging or a failed search.
func (it *ItineraryOutput) DaysNeedingAccommodation() []int {
	if it == nil {
		return nil
	}
	var out []int
	for _, d := range it.Days {
		if d.Accommodation == nil || d.Accommodation.Failed {
			out = append(out, d.DayNumber)
		}
	}
	return out
}

// StayDates returns the check-in/check-out pair for a day: the next day's
// date when there is one, otherwise the following calendar day.
func (it *ItineraryOutput) StayDates(dayNumber int) (civil.Date, civil.Date, error) {
	day, ok := it.Day(dayNumber)
	if !ok {
		return civil.Date{}, civil.Date{}, fmt.Errorf("%w: day %d", ErrDayNotFound, dayNumber)
	}
	if next, ok := it.Day(dayNumber + 1); ok && next.Date.After(day.Date) {
		return day.Date, next.Date, nil
	}
	return day.Date, day.Date.AddDays(1), nil
}

func (it *ItineraryOutput) Clone() *ItineraryOutput {
	if it == nil {
		return nil
	}
	out := *it
	if it.Days != nil {
		out.Days = make([]DayPlan, len(it.Days))
		for i := range it.Days {
			out.Days[i] = it.Days[i].Clone()
		}
	}
	return &out
}

func (d DayPlan) Clone() DayPlan {
	out := d
	if d.Activities != nil {
		out.Activities = append([]string{}, d.Activities...)
	}
	out.Transportation = cloneString(d.Transportation)
	out.Notes = cloneString(d.Notes)
	out.Accommodation = d.Accommodation.Clone()
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
