// Package filters provides the card predicates the grooming rules are
// composed from: completion/due-date checks used by list migration, and
// the action-log analyzer that decides whether auto-due assignment may
// fire for a card.
package filters

import (
	"time"

	"github.com/josephgoksu/BoardWing/internal/dates"
	"github.com/josephgoksu/BoardWing/models"
)

// Filter is a predicate over a card.
type Filter func(*models.Card) bool

// IsComplete matches cards flagged due-complete.
func IsComplete(card *models.Card) bool {
	return card.DueComplete
}

// HasDueDate matches cards carrying a due date.
func HasDueDate(card *models.Card) bool {
	return card.HasDueDate()
}

// DueToday matches cards due before this time tomorrow.
func DueToday(now time.Time) Filter {
	tomorrow := now.AddDate(0, 0, 1)
	return func(card *models.Card) bool {
		return card.HasDueDate() && card.Due.Before(tomorrow)
	}
}

// DueWithinTwoDays matches cards due before this time the day after
// tomorrow.
func DueWithinTwoDays(now time.Time) Filter {
	dayAfterTomorrow := now.AddDate(0, 0, 2)
	return func(card *models.Card) bool {
		return card.HasDueDate() && card.Due.Before(dayAfterTomorrow)
	}
}

// DueThisWeek matches cards due on or before the coming Sunday.
func DueThisWeek(now time.Time) Filter {
	nextSunday := dates.NextWeekday(now, time.Sunday)
	return func(card *models.Card) bool {
		return card.HasDueDate() && !card.Due.After(nextSunday)
	}
}

// DueThisMonth matches cards due before the first of next month.
func DueThisMonth(now time.Time) Filter {
	firstOfNextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return func(card *models.Card) bool {
		return card.HasDueDate() && card.Due.Before(firstOfNextMonth)
	}
}

// HasLabel matches cards carrying the given label id.
func HasLabel(labelID string) Filter {
	return func(card *models.Card) bool {
		return card.HasLabel(labelID)
	}
}

// Not inverts a filter.
func Not(filter Filter) Filter {
	return func(card *models.Card) bool {
		return !filter(card)
	}
}
