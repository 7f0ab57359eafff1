package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Trip-Planner/agent/lodging"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// lodgingFiller searches one stay per itinerary day under a shared deadline.
type lodgingFiller struct {
	searcher lodging.Searcher
	cities   lodging.CityResolver
	timeout  time.Duration
}

func (f *lodgingFiller) FillAccommodations(ctx context.Context, c *statex.ConversationContext) (int, error) {
	if c == nil || c.Itinerary == nil {
		return 0, nil
	}
	it := c.Itinerary
	days := it.DaysNeedingAccommodation()
	if len(days) == 0 {
		return 0, nil
	}

	logger := log.With().Str("conversation_id", c.ConversationID).Logger()

	// Recomputed every time so budget and date edits always apply.
	nightly, err := statex.NightlyRangeFor(c.Budget, it.DurationDays)
	if err != nil {
		logger.Warn().Err(err).Msg("cannot derive nightly price range")
		return 0, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	filled := 0
	for _, n := range days {
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		day, _ := it.Day(n)
		checkIn, checkOut, err := it.StayDates(n)
		if err != nil {
			return filled, err
		}

		cityID, err := f.cities.Resolve(day.Location)
		if err != nil {
			logger.Info().Int("day", n).Str("location", day.Location).Msg("city not in lodging map")
			_ = it.SetAccommodation(n, statex.FailedAccommodation(statex.ReasonCityNotFound, checkIn, checkOut))
			continue
		}

		result, err := f.searcher.Search(searchCtx, lodging.SearchRequest{
			CityID:         cityID,
			CheckIn:        checkIn,
			CheckOut:       checkOut,
			Guests:         c.Guests(),
			NightlyFloor:   nightly.Min,
			NightlyCeiling: nightly.Max,
		})
		if err != nil {
			logger.Warn().Err(err).Int("day", n).Msg("lodging search rejected input")
			result = statex.FailedAccommodation(inputFaultReason(err), checkIn, checkOut)
		}
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		if err := it.SetAccommodation(n, result); err != nil {
			return filled, err
		}
		filled++
	}
	return filled, nil
}

func inputFaultReason(err error) string {
	switch {
	case errors.Is(err, lodging.ErrCityUnresolved), errors.Is(err, lodging.ErrCityNotFound):
		return statex.ReasonCityNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return statex.ReasonTimeout
	default:
		return statex.ReasonUpstreamRejected
	}
}
