package lodging

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FallbackStep names one relaxation applied after a search comes back empty.
type FallbackStep string

const (
	StepWidenPrice  FallbackStep = "widen_price"
	StepDropFilters FallbackStep = "drop_filters"
	StepRelaxPrice  FallbackStep = "relax_price"
	StepMinimal     FallbackStep = "minimal"
)

func DefaultFallbackOrder() []string {
	return []string{
		string(StepWidenPrice),
		string(StepDropFilters),
		string(StepRelaxPrice),
		string(StepMinimal),
	}
}

type payloadEdit func(payload []byte) ([]byte, error)

var fallbackEdits = map[FallbackStep]payloadEdit{
	StepWidenPrice:  widenPrice,
	StepDropFilters: dropFilters,
	StepRelaxPrice:  relaxPrice,
	StepMinimal:     minimalPayload,
}

// ParseFallbackOrder validates a configured order. Steps apply cumulatively
// in the given order.
func ParseFallbackOrder(names []string) ([]FallbackStep, error) {
	out := make([]FallbackStep, 0, len(names))
	for _, raw := range names {
		name := FallbackStep(strings.ToLower(strings.TrimSpace(raw)))
		if name == "" {
			continue
		}
		if _, ok := fallbackEdits[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFallback, raw)
		}
		out = append(out, name)
	}
	return out, nil
}

func applyFallback(step FallbackStep, payload []byte) ([]byte, error) {
	edit, ok := fallbackEdits[step]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFallback, step)
	}
	return edit(payload)
}

// widenPrice halves the floor and raises the ceiling by half.
func widenPrice(payload []byte) ([]byte, error) {
	rate := gjson.GetBytes(payload, "criteria.additional.dailyRate")
	if !rate.Exists() {
		return payload, nil
	}
	out, err := sjson.SetBytes(payload, "criteria.additional.dailyRate.minimum", rate.Get("minimum").Float()*0.5)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "criteria.additional.dailyRate.maximum", rate.Get("maximum").Float()*1.5)
}

func dropFilters(payload []byte) ([]byte, error) {
	if !gjson.GetBytes(payload, "criteria.additional").Exists() {
		return payload, nil
	}
	out := payload
	var err error
	for path, v := range map[string]any{
		"criteria.additional.minimumReviewScore": 0,
		"criteria.additional.minimumStarRating":  0,
		"criteria.additional.discountOnly":       false,
	} {
		if out, err = sjson.SetBytes(out, path, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// relaxPrice removes the price filter and asks for more, popular results.
func relaxPrice(payload []byte) ([]byte, error) {
	if !gjson.GetBytes(payload, "criteria.additional").Exists() {
		return payload, nil
	}
	out, err := sjson.DeleteBytes(payload, "criteria.additional.dailyRate")
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "criteria.additional.maxResult", 10); err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "criteria.additional.sortBy", "Popularity")
}

// minimalPayload keeps only the dates and the city.
func minimalPayload(payload []byte) ([]byte, error) {
	out := []byte(`{"criteria":{}}`)
	var err error
	for _, key := range []string{"checkInDate", "checkOutDate", "cityId"} {
		v := gjson.GetBytes(payload, "criteria."+key)
		if !v.Exists() {
			continue
		}
		if out, err = sjson.SetRawBytes(out, "criteria."+key, []byte(v.Raw)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
