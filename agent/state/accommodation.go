package state

import "cloud.google.com/go/civil"

// Reasons recorded on an AccommodationResult that carries no offers.
const (
	ReasonUpstreamUnavailable = "upstream_unavailable"
	ReasonUpstreamRejected    = "upstream_rejected"
	ReasonTimeout             = "timeout"
	ReasonNoResults           = "no_results"
	ReasonCityNotFound        = "city_not_found"
)

// Offer is one normalised hotel offer.
type Offer struct {
	HotelID      int64   `json:"hotel_id"`
	HotelName    string  `json:"hotel_name,omitempty"`
	NightlyPrice float64 `json:"nightly_price"`
	Currency     string  `json:"currency"`
	StarRating   float64 `json:"star_rating,omitempty"`
	ReviewScore  float64 `json:"review_score,omitempty"`
	URL          string  `json:"url,omitempty"`
}

// AccommodationResult is the lodging outcome for one night of the trip.
// Failed marks results that should be searched again on a later turn.
type AccommodationResult struct {
	Offers       []Offer    `json:"offers"`
	Failed       bool       `json:"failed,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	FallbackStep string     `json:"fallback_step,omitempty"`
	CheckIn      civil.Date `json:"check_in"`
	CheckOut     civil.Date `json:"check_out"`
}

func (r *AccommodationResult) Empty() bool {
	return r == nil || len(r.Offers) == 0
}

func (r *AccommodationResult) Clone() *AccommodationResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Offers != nil {
		out.Offers = append([]Offer(nil), r.Offers...)
	}
	return &out
}

// FailedAccommodation builds an empty result flagged for a later retry.
func FailedAccommodation(reason string, checkIn, checkOut civil.Date) AccommodationResult {
	return AccommodationResult{
		Offers:   []Offer{},
		Failed:   true,
		Reason:   reason,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
}
