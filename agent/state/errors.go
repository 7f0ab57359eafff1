package state

import "errors"

var (
	ErrUnknownAgentName        = errors.New("unknown agent name")
	ErrConversationIDImmutable = errors.New("conversation id cannot change")
	ErrInvalidConversationID   = errors.New("conversation id is empty")
	ErrDatesMissing            = errors.New("trip dates are missing")
	ErrDatesInverted           = errors.New("trip end date is before start date")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidBudget           = errors.New("invalid budget")
	ErrInvalidPeople           = errors.New("number of people must be positive")
	ErrDestinationMissing      = errors.New("destination is missing")
	ErrItineraryMissing        = errors.New("itinerary has not been created")
	ErrDayNotFound             = errors.New("itinerary day not found")
	ErrInvalidItinerary        = errors.New("invalid itinerary")
)
