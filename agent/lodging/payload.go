package lodging

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
)

// SearchRequest asks for offers for one stay.
type SearchRequest struct {
	CityID         int
	CheckIn        civil.Date
	CheckOut       civil.Date
	Guests         int
	NightlyFloor   float64
	NightlyCeiling float64
}

func (r SearchRequest) Validate() error {
	if r.CityID <= 0 {
		return fmt.Errorf("%w: city_id=%d", ErrCityUnresolved, r.CityID)
	}
	if !r.CheckIn.IsValid() || !r.CheckOut.IsValid() || !r.CheckIn.Before(r.CheckOut) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidDateRange, r.CheckIn, r.CheckOut)
	}
	if r.Guests <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidGuests, r.Guests)
	}
	return nil
}

type searchPayload struct {
	Criteria searchCriteria `json:"criteria"`
}

type searchCriteria struct {
	Additional   *searchAdditional `json:"additional,omitempty"`
	CheckInDate  string            `json:"checkInDate"`
	CheckOutDate string            `json:"checkOutDate"`
	CityID       int               `json:"cityId"`
}

type searchAdditional struct {
	Currency           string     `json:"currency"`
	DailyRate          *dailyRate `json:"dailyRate,omitempty"`
	DiscountOnly       bool       `json:"discountOnly"`
	Language           string     `json:"language"`
	MaxResult          int        `json:"maxResult"`
	MinimumReviewScore float64    `json:"minimumReviewScore"`
	MinimumStarRating  float64    `json:"minimumStarRating"`
	Occupancy          occupancy  `json:"occupancy"`
	SortBy             string     `json:"sortBy"`
}

type dailyRate struct {
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

type occupancy struct {
	NumberOfAdult    int   `json:"numberOfAdult"`
	NumberOfChildren int   `json:"numberOfChildren"`
	ChildrenAges     []int `json:"childrenAges"`
}

// buildPayload renders the long-tail search body. A non-positive ceiling
// leaves out the price filter.
func buildPayload(cfg Config, req SearchRequest) ([]byte, error) {
	add := &searchAdditional{
		Currency:           cfg.Currency,
		Language:           cfg.Language,
		MaxResult:          cfg.MaxResult,
		MinimumReviewScore: cfg.MinReviewScore,
		MinimumStarRating:  cfg.MinStarRating,
		Occupancy: occupancy{
			NumberOfAdult: req.Guests,
			ChildrenAges:  []int{},
		},
		SortBy: cfg.SortBy,
	}
	if req.NightlyCeiling > 0 {
		floor := req.NightlyFloor
		if floor < 0 || floor > req.NightlyCeiling {
			floor = 0
		}
		add.DailyRate = &dailyRate{Minimum: floor, Maximum: req.NightlyCeiling}
	}

	body, err := json.Marshal(searchPayload{Criteria: searchCriteria{
		Additional:   add,
		CheckInDate:  req.CheckIn.String(),
		CheckOutDate: req.CheckOut.String(),
		CityID:       req.CityID,
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}
	return body, nil
}
