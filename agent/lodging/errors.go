package lodging

import "errors"

var (
	ErrNotConfigured    = errors.New("lodging client is not configured")
	ErrInvalidDateRange = errors.New("check-in must be before check-out")
	ErrCityUnresolved   = errors.New("city id is not resolved")
	ErrInvalidGuests    = errors.New("guest count must be positive")
	ErrCityNotFound     = errors.New("city not found in mapping")
	ErrUnknownFallback  = errors.New("unknown fallback step")

	errUpstreamRejected  = errors.New("upstream rejected request")
	errUpstreamTransient = errors.New("upstream temporarily unavailable")
)
