package lodging

import (
	"context"
	"testing"
	"time"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

type countingSearcher struct {
	calls  int
	result statex.AccommodationResult
}

func (s *countingSearcher) Search(_ context.Context, req SearchRequest) (statex.AccommodationResult, error) {
	s.calls++
	res := s.result
	res.CheckIn, res.CheckOut = req.CheckIn, req.CheckOut
	return res, nil
}

func TestCachedSearcherMemoisesOffers(t *testing.T) {
	t.Parallel()

	next := &countingSearcher{result: statex.AccommodationResult{Offers: []statex.Offer{{HotelID: 1, NightlyPrice: 100, Currency: "USD"}}}}
	cached := NewCachedSearcher(next, 8, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := cached.Search(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(res.Offers) != 1 {
			t.Fatalf("Search() = %+v", res)
		}
		res.Offers[0].HotelID = 99
	}
	if next.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", next.calls)
	}

	other := testRequest()
	other.Guests = 3
	if _, err := cached.Search(context.Background(), other); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("upstream calls = %d, want 2", next.calls)
	}
}

func TestCachedSearcherSkipsFailures(t *testing.T) {
	t.Parallel()

	next := &countingSearcher{result: statex.AccommodationResult{Offers: []statex.Offer{}, Failed: true, Reason: statex.ReasonTimeout}}
	cached := NewCachedSearcher(next, 8, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cached.Search(context.Background(), testRequest()); err != nil {
			t.Fatalf("Search() error = %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("upstream calls = %d, want 2", next.calls)
	}
}
