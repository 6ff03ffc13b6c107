package dates

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// PeriodDescriptor is the structured form of an auto-due offset: instead
// of a flat day count, a list's offset may be derived from the remaining
// days in the current week, month, or year.
type PeriodDescriptor struct {
	PeriodType       string   `json:"periodType"`
	EndOfPeriod      *bool    `json:"endOfPeriod,omitempty"`
	MultiplyPeriodBy *float64 `json:"multiplyPeriodBy,omitempty"`
	DividePeriodBy   *float64 `json:"dividePeriodBy,omitempty"`
}

// ResolveAutoDueConfig turns a raw auto-due config document into a map
// from list name to a concrete day count. Each value is either a plain
// number of days or a PeriodDescriptor resolved against the calendar at
// now. Entries of any other shape are dropped.
func ResolveAutoDueConfig(raw map[string]json.RawMessage, now time.Time) (map[string]int, error) {
	result := make(map[string]int, len(raw))
	for listName, value := range raw {
		var days float64
		if err := json.Unmarshal(value, &days); err == nil {
			result[listName] = int(math.Round(days))
			continue
		}

		var descriptor PeriodDescriptor
		if err := json.Unmarshal(value, &descriptor); err != nil || descriptor.PeriodType == "" {
			continue
		}
		resolved, err := descriptor.Resolve(now)
		if err != nil {
			return nil, fmt.Errorf("auto-due entry %q: %w", listName, err)
		}
		result[listName] = resolved
	}
	return result, nil
}

// Resolve computes the concrete day count for the descriptor:
// round(multiplyPeriodBy * numerator / dividePeriodBy), where the
// numerator is the remaining days in the period when endOfPeriod is set
// (the default), or the nominal period length otherwise.
func (d PeriodDescriptor) Resolve(now time.Time) (int, error) {
	endOfPeriod := true
	if d.EndOfPeriod != nil {
		endOfPeriod = *d.EndOfPeriod
	}
	multiply, divide := 1.0, 1.0
	if d.MultiplyPeriodBy != nil {
		multiply = *d.MultiplyPeriodBy
	}
	if d.DividePeriodBy != nil {
		divide = *d.DividePeriodBy
	}
	if divide == 0 {
		return 0, fmt.Errorf("dividePeriodBy must be non-zero")
	}

	var numerator int
	switch d.PeriodType {
	case "week":
		if endOfPeriod {
			numerator = RemnDaysInWeek(now)
		} else {
			numerator = 7
		}
	case "month":
		if endOfPeriod {
			numerator = RemnDaysInMonth(now)
		} else {
			numerator = 30
		}
	case "year":
		if endOfPeriod {
			numerator = RemnDaysInYear(now)
		} else {
			numerator = 365
		}
	default:
		return 0, fmt.Errorf("unknown periodType %q", d.PeriodType)
	}

	return int(math.Round(multiply * float64(numerator) / divide)), nil
}
