package filters

import (
	"sort"
	"time"

	"github.com/josephgoksu/BoardWing/models"
)

// staleDueChangeAge is how old a manual due-date edit must be before the
// auto-due rule is allowed to re-evaluate the card despite the edit.
const staleDueChangeAge = 7 * 24 * time.Hour

// MovedFromTo matches cards sitting in toListID whose action history
// says they were moved there from one of fromListIDs, and whose due date
// has not been deliberately overridden since. A manual due-date edit
// made after the move takes precedence over automatic assignment unless
// the edit cleared no date, pulled the date earlier, is more than a week
// old, or set a date that has already passed.
func MovedFromTo(toListID string, fromListIDs []string, now time.Time) Filter {
	from := make(map[string]bool, len(fromListIDs))
	for _, id := range fromListIDs {
		from[id] = true
	}

	return func(card *models.Card) bool {
		// Only qualifying moves and due-date edits matter; everything
		// else in the history is noise for this decision.
		var relevant []models.Action
		for _, action := range card.Actions {
			switch {
			case action.IsDueChange():
				relevant = append(relevant, action)
			case action.IsListMove() &&
				action.Data.ListAfter.ID == toListID &&
				from[action.Data.ListBefore.ID]:
				relevant = append(relevant, action)
			}
		}
		sort.Slice(relevant, func(i, j int) bool {
			return relevant[i].Date.After(relevant[j].Date)
		})

		moveIdx, dueIdx := -1, -1
		for i, action := range relevant {
			if action.IsDueChange() {
				if dueIdx == -1 {
					dueIdx = i
				}
			} else if moveIdx == -1 {
				moveIdx = i
			}
		}

		if moveIdx == -1 {
			return false
		}
		if dueIdx == -1 || moveIdx < dueIdx {
			// The move is the most recent significant action.
			return true
		}

		change := relevant[dueIdx]
		newDue, oldDue := change.NewDue(), change.OldDue()
		switch {
		case newDue == nil:
			// The user cleared the date on purpose.
			return false
		case oldDue == nil:
			// The edit set a date where none existed.
			return true
		case newDue.Before(*oldDue):
			// The user pulled the date forward.
			return true
		case now.Sub(change.Date) > staleDueChangeAge:
			return true
		case newDue.Before(now):
			// The chosen date has already passed.
			return true
		default:
			return false
		}
	}
}
