package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

var (
	ErrItineraryNotFound = errors.New("itinerary not found")
	ErrInvalidID         = errors.New("invalid conversation id")
	ErrNilItinerary      = errors.New("itinerary is nil")
)

// ItineraryStore persists one itinerary document per conversation. Save
// replaces the whole document; readers never observe a partial write.
type ItineraryStore interface {
	Load(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error)
	Save(ctx context.Context, conversationID string, it *statex.ItineraryOutput) error
}

// Lister enumerates stored conversation ids.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

func checkID(conversationID string) error {
	id := strings.TrimSpace(conversationID)
	if id == "" || id != conversationID {
		return fmt.Errorf("%w: %q", ErrInvalidID, conversationID)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, conversationID)
	}
	return nil
}

func checkSave(conversationID string, it *statex.ItineraryOutput) error {
	if err := checkID(conversationID); err != nil {
		return err
	}
	if it == nil {
		return ErrNilItinerary
	}
	return it.Validate()
}
