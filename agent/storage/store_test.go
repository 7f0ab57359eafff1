package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

func strPtr(s string) *string { return &s }

func sampleItinerary(t *testing.T) *statex.ItineraryOutput {
	t.Helper()

	start, end := "2024-10-10", "2024-10-12"
	c := statex.NewConversationContext("conv-1", time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	if err := c.ApplyPatch(statex.ContextPatch{Destination: strPtr("Paris"), StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	it, err := statex.BuildItinerary(c, statex.ItineraryDraft{
		Description: "Three days",
		Days: []statex.DraftDay{
			{Activities: []string{"Louvre"}, Transportation: strPtr("Metro")},
			{Location: "Versailles", Activities: []string{"Palace"}, Notes: strPtr("book tickets")},
		},
	})
	if err != nil {
		t.Fatalf("BuildItinerary() error = %v", err)
	}
	if err := it.SetAccommodation(1, statex.AccommodationResult{
		Offers:   []statex.Offer{{HotelID: 5, HotelName: "H", NightlyPrice: 120, Currency: "USD"}},
		CheckIn:  it.Days[0].Date,
		CheckOut: it.Days[1].Date,
	}); err != nil {
		t.Fatalf("SetAccommodation() error = %v", err)
	}
	return it
}

// singleDayEmpty is a one-day trip with no planned days yet.
func singleDayEmpty(t *testing.T) *statex.ItineraryOutput {
	t.Helper()

	it := sampleItinerary(t)
	it.EndDate = it.StartDate
	it.DurationDays = 1
	it.Days = []statex.DayPlan{}
	return it
}

// exerciseStore runs the round-trip checks shared by every backend.
func exerciseStore(t *testing.T, store ItineraryStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrItineraryNotFound) {
		t.Fatalf("Load(missing) error = %v, want ErrItineraryNotFound", err)
	}

	full := sampleItinerary(t)
	if err := store.Save(ctx, "conv-1", full); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, full) {
		t.Fatalf("Load() = %+v\nwant %+v", got, full)
	}
	if got.Days[2].Transportation != nil || got.Days[2].Notes != nil || got.Days[2].Accommodation != nil {
		t.Fatalf("absent optionals came back set: %+v", got.Days[2])
	}

	empty := singleDayEmpty(t)
	if err := store.Save(ctx, "conv-2", empty); err != nil {
		t.Fatalf("Save(empty) error = %v", err)
	}
	got, err = store.Load(ctx, "conv-2")
	if err != nil {
		t.Fatalf("Load(empty) error = %v", err)
	}
	if !reflect.DeepEqual(got, empty) {
		t.Fatalf("Load(empty) = %+v, want %+v", got, empty)
	}

	full.Days[0].Activities = []string{"Orsay"}
	if err := store.Save(ctx, "conv-1", full); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}
	got, err = store.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Days[0].Activities[0] != "Orsay" {
		t.Fatalf("overwrite lost: %v", got.Days[0].Activities)
	}

	if err := store.Save(ctx, "../escape", full); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Save(../escape) error = %v, want ErrInvalidID", err)
	}
	if err := store.Save(ctx, "conv-3", nil); !errors.Is(err, ErrNilItinerary) {
		t.Fatalf("Save(nil) error = %v, want ErrNilItinerary", err)
	}
	broken := sampleItinerary(t)
	broken.Days[1].DayNumber = 7
	if err := store.Save(ctx, "conv-3", broken); !errors.Is(err, statex.ErrInvalidItinerary) {
		t.Fatalf("Save(broken) error = %v, want ErrInvalidItinerary", err)
	}
}
