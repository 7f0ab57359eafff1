package lodging

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// CachedSearcher memoises non-empty successful searches so repeated turns
// on the same itinerary do not spend rate-limit permits.
type CachedSearcher struct {
	next  Searcher
	cache *expirable.LRU[string, statex.AccommodationResult]
}

var _ Searcher = (*CachedSearcher)(nil)

func NewCachedSearcher(next Searcher, size int, ttl time.Duration) *CachedSearcher {
	if size <= 0 {
		size = 256
	}
	return &CachedSearcher{
		next:  next,
		cache: expirable.NewLRU[string, statex.AccommodationResult](size, nil, ttl),
	}
}

func (s *CachedSearcher) Search(ctx context.Context, req SearchRequest) (statex.AccommodationResult, error) {
	key := cacheKey(req)
	if hit, ok := s.cache.Get(key); ok {
		return *hit.Clone(), nil
	}

	res, err := s.next.Search(ctx, req)
	if err != nil {
		return res, err
	}
	if !res.Failed && len(res.Offers) > 0 {
		s.cache.Add(key, *res.Clone())
	}
	return res, nil
}

func cacheKey(req SearchRequest) string {
	return fmt.Sprintf("%d|%s|%s|%d|%.2f|%.2f",
		req.CityID, req.CheckIn, req.CheckOut, req.Guests, req.NightlyFloor, req.NightlyCeiling)
}
