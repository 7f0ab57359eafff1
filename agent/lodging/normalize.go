package lodging

import (
	"strings"

	"github.com/tidwall/gjson"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

const noResultsErrorID = 911

var (
	listKeys     = []string{"results", "hotels", "properties"}
	idKeys       = []string{"hotelId", "hotel_id", "propertyId", "id"}
	nameKeys     = []string{"hotelName", "hotel_name", "propertyName", "name"}
	priceKeys    = []string{"dailyRate", "daily_rate", "nightlyRate", "price", "rate"}
	currencyKeys = []string{"currency", "currencyCode"}
	starKeys     = []string{"starRating", "star_rating", "stars"}
	reviewKeys   = []string{"reviewScore", "review_score", "rating"}
	urlKeys      = []string{"landingURL", "landingUrl", "url", "deeplink"}
)

type upstreamBody struct {
	offers    []statex.Offer
	noResults bool
	errorID   int64
	errorMsg  string
}

// parseResponse reads a 200 body. An error object with id 911 means the
// search matched nothing.
func parseResponse(body []byte, defaultCurrency string) upstreamBody {
	var out upstreamBody
	if errObj := gjson.GetBytes(body, "error"); errObj.IsObject() {
		out.errorID = errObj.Get("id").Int()
		out.errorMsg = errObj.Get("message").String()
		if out.errorID == noResultsErrorID {
			out.noResults = true
		}
	}
	out.offers = normalizeOffers(body, defaultCurrency)
	return out
}

// normalizeOffers maps whatever result list the upstream returned into
// offers. Entries without an id or a positive price are dropped.
func normalizeOffers(body []byte, defaultCurrency string) []statex.Offer {
	root := gjson.ParseBytes(body)
	var list gjson.Result
	if root.IsArray() {
		list = root
	} else {
		for _, key := range listKeys {
			if v := root.Get(key); v.IsArray() {
				list = v
				break
			}
		}
	}

	offers := []statex.Offer{}
	list.ForEach(func(_, item gjson.Result) bool {
		id := first(item, idKeys).Int()
		price := priceOf(first(item, priceKeys))
		if id <= 0 || price <= 0 {
			return true
		}
		currency := strings.ToUpper(strings.TrimSpace(first(item, currencyKeys).String()))
		if currency == "" {
			currency = defaultCurrency
		}
		offers = append(offers, statex.Offer{
			HotelID:      id,
			HotelName:    first(item, nameKeys).String(),
			NightlyPrice: price,
			Currency:     currency,
			StarRating:   first(item, starKeys).Float(),
			ReviewScore:  first(item, reviewKeys).Float(),
			URL:          first(item, urlKeys).String(),
		})
		return true
	})
	return offers
}

func first(item gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// priceOf accepts a bare number or an object such as {"inclusive": 120}.
func priceOf(v gjson.Result) float64 {
	if !v.IsObject() {
		return v.Float()
	}
	for _, k := range []string{"inclusive", "exclusive", "amount", "value"} {
		if p := v.Get(k); p.Exists() {
			return p.Float()
		}
	}
	return 0
}
