package state

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type BudgetLabel string

const (
	BudgetLabelBudget   BudgetLabel = "budget"
	BudgetLabelMidRange BudgetLabel = "mid-range"
	BudgetLabelLuxury   BudgetLabel = "luxury"
)

type BudgetScope string

const (
	BudgetPerNight BudgetScope = "per_night"
	BudgetTotal    BudgetScope = "total"
)

// totalBudgetThreshold separates a bare per-night amount from a whole-trip
// amount when the user gives no explicit scope.
const totalBudgetThreshold = 500

// PriceRange is a nightly price window in the search currency.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultPriceRange applies when the traveller gave no budget.
var DefaultPriceRange = PriceRange{Min: 20, Max: 500}

var labelRanges = map[BudgetLabel]PriceRange{
	BudgetLabelBudget:   {Min: 20, Max: 80},
	BudgetLabelMidRange: {Min: 80, Max: 200},
	BudgetLabelLuxury:   {Min: 200, Max: 800},
}

var labelAliases = map[string]BudgetLabel{
	"budget":    BudgetLabelBudget,
	"cheap":     BudgetLabelBudget,
	"low":       BudgetLabelBudget,
	"economy":   BudgetLabelBudget,
	"mid-range": BudgetLabelMidRange,
	"midrange":  BudgetLabelMidRange,
	"mid range": BudgetLabelMidRange,
	"mid":       BudgetLabelMidRange,
	"medium":    BudgetLabelMidRange,
	"moderate":  BudgetLabelMidRange,
	"luxury":    BudgetLabelLuxury,
	"high":      BudgetLabelLuxury,
	"premium":   BudgetLabelLuxury,
}

// BudgetSpec is either a Label or an Amount with a Scope, never both.
type BudgetSpec struct {
	Label  BudgetLabel `json:"label,omitempty"`
	Amount float64     `json:"amount,omitempty"`
	Scope  BudgetScope `json:"scope,omitempty"`
}

func LabelBudget(label BudgetLabel) BudgetSpec {
	return BudgetSpec{Label: label}
}

func AmountBudget(amount float64, scope BudgetScope) BudgetSpec {
	return BudgetSpec{Amount: amount, Scope: scope}
}

func (b BudgetSpec) IsLabel() bool {
	return b.Label != ""
}

func (b BudgetSpec) Validate() error {
	if b.IsLabel() {
		if b.Amount != 0 || b.Scope != "" {
			return fmt.Errorf("%w: label and amount are exclusive", ErrInvalidBudget)
		}
		if _, ok := labelRanges[b.Label]; !ok {
			return fmt.Errorf("%w: unknown label %q", ErrInvalidBudget, b.Label)
		}
		return nil
	}
	if b.Amount <= 0 || math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBudget)
	}
	switch b.Scope {
	case BudgetPerNight, BudgetTotal:
		return nil
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidBudget, b.Scope)
	}
}

// NightlyRange derives the nightly price window for a trip of durationDays.
// A total amount is spread evenly over the days; the result is computed on
// every call so edits to dates or budget always show up.
func (b BudgetSpec) NightlyRange(durationDays int) (PriceRange, error) {
	if err := b.Validate(); err != nil {
		return PriceRange{}, err
	}
	if b.IsLabel() {
		return labelRanges[b.Label], nil
	}
	if b.Scope == BudgetTotal {
		if durationDays <= 0 {
			return PriceRange{}, fmt.Errorf("%w: duration_days=%d", ErrDatesInverted, durationDays)
		}
		return PriceRange{Max: b.Amount / float64(durationDays)}, nil
	}
	return PriceRange{Max: b.Amount}, nil
}

func (b BudgetSpec) String() string {
	if b.IsLabel() {
		return string(b.Label)
	}
	scope := "per night"
	if b.Scope == BudgetTotal {
		scope = "total"
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(b.Amount, 'f', -1, 64), scope)
}

// NightlyRangeFor resolves the nightly window for an optional budget.
func NightlyRangeFor(b *BudgetSpec, durationDays int) (PriceRange, error) {
	if b == nil {
		if durationDays <= 0 {
			return PriceRange{}, fmt.Errorf("%w: duration_days=%d", ErrDatesInverted, durationDays)
		}
		return DefaultPriceRange, nil
	}
	return b.NightlyRange(durationDays)
}

var amountPattern = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)`)

// ParseBudget reads free-form budget text: a label ("mid-range", "cheap"),
// or an amount with an optional scope ("$1000 total", "150 per night").
func ParseBudget(raw string) (BudgetSpec, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return BudgetSpec{}, fmt.Errorf("%w: empty budget", ErrInvalidBudget)
	}
	if label, ok := labelAliases[text]; ok {
		return LabelBudget(label), nil
	}

	match := amountPattern.FindString(text)
	if match == "" {
		return BudgetSpec{}, fmt.Errorf("%w: %q", ErrInvalidBudget, raw)
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return BudgetSpec{}, fmt.Errorf("%w: %q", ErrInvalidBudget, raw)
	}

	var scope BudgetScope
	switch {
	case strings.Contains(text, "total"), strings.Contains(text, "whole trip"), strings.Contains(text, "overall"):
		scope = BudgetTotal
	case strings.Contains(text, "night"), strings.Contains(text, "/day"), strings.Contains(text, "per day"):
		scope = BudgetPerNight
	case amount > totalBudgetThreshold:
		scope = BudgetTotal
	default:
		scope = BudgetPerNight
	}

	spec := AmountBudget(amount, scope)
	if err := spec.Validate(); err != nil {
		return BudgetSpec{}, err
	}
	return spec, nil
}
