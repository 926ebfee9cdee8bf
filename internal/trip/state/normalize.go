// internal/trip/state/normalize.go
package state

import (
	"regexp"
	"strconv"
	"strings"
)

// MapPace normalizes a free-form pace description into the closed pace set.
// Unknown values fall through to moderate; this function never fails.
func MapPace(pace string) Pace {
	lower := strings.ToLower(pace)
	if strings.Contains(lower, "relax") || strings.Contains(lower, "slow") {
		return PaceRelaxed
	}
	if strings.Contains(lower, "intense") || strings.Contains(lower, "fast") || strings.Contains(lower, "adventure") {
		return PaceIntense
	}
	return PaceModerate
}

// MapCategory normalizes a free-form activity category into the closed
// category set. Unknown values fall through to activity.
func MapCategory(category string) Category {
	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "transport") || strings.Contains(lower, "travel") || strings.Contains(lower, "flight"):
		return CategoryTransport
	case strings.Contains(lower, "food") || strings.Contains(lower, "dining") || strings.Contains(lower, "restaurant") || strings.Contains(lower, "meal"):
		return CategoryFood
	case strings.Contains(lower, "accommodation") || strings.Contains(lower, "hotel") || strings.Contains(lower, "lodging"):
		return CategoryAccommodation
	case strings.Contains(lower, "free") || strings.Contains(lower, "leisure"):
		return CategoryFree
	default:
		return CategoryActivity
	}
}

var (
	rangePattern  = regexp.MustCompile(`([^\d]*)([\d,]+)\s*[-–]\s*([\d,]+)`)
	singlePattern = regexp.MustCompile(`([^\d]*)([\d,]+)`)
	amountPattern = regexp.MustCompile(`([^\d]*)([\d,.]+)`)
)

// ParsePlanCost turns a free-form plan cost string into a numeric band.
// Handles explicit ranges ("$1500-2000"), single amounts (widened to a
// +-20% band), and budget-tier symbols ("$$" maps to a band around 1000).
// Anything unrecognized gets a generic 1000-2000 USD band; this function
// never fails.
func ParsePlanCost(costStr string) CostRange {
	if m := rangePattern.FindStringSubmatch(costStr); m != nil {
		currency := strings.TrimSpace(m[1])
		if currency == "" {
			currency = "USD"
		}
		min := parseAmount(m[2])
		max := parseAmount(m[3])
		return CostRange{Min: min, Max: max, Currency: currency}
	}

	if m := singlePattern.FindStringSubmatch(costStr); m != nil {
		currency := strings.TrimSpace(m[1])
		if currency == "" {
			currency = "USD"
		}
		amount := parseAmount(m[2])
		return CostRange{Min: amount * 0.8, Max: amount * 1.2, Currency: currency}
	}

	if dollarCount := strings.Count(costStr, "$"); dollarCount > 0 {
		base := float64(dollarCount) * 500
		return CostRange{Min: base, Max: base * 1.5, Currency: "USD"}
	}

	return CostRange{Min: 1000, Max: 2000, Currency: "USD"}
}

// ParseCost turns a free-form activity cost string into an amount. Empty
// strings and "free" mean no cost at all, so nil is returned.
func ParseCost(costStr string) *Cost {
	if costStr == "" || strings.EqualFold(costStr, "free") {
		return nil
	}
	m := amountPattern.FindStringSubmatch(costStr)
	if m == nil {
		return nil
	}
	currency := strings.TrimSpace(m[1])
	if currency == "" {
		currency = "USD"
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &Cost{Amount: amount, Currency: currency}
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}
