package board

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/josephgoksu/BoardWing/models"
)

const (
	// Trello renders at most this many card attachments usefully.
	maxCardAttachments = 10
	// Cap on attachments created in a single grooming run.
	maxLinksPerRun = 100
)

// AutoLinkRelatedCards attaches related cards to each other. Two cards
// are related when they share a label and at least one significant
// title word. Candidates are tried most recently active first, capped
// per card and per run, and skipped when already linked, deliberately
// unlinked before, or already finished.
func (c *Controller) AutoLinkRelatedCards(ctx context.Context, ignoreWords []string) error {
	ignore := make(map[string]bool, len(ignoreWords))
	for _, word := range ignoreWords {
		ignore[strings.ToLower(word)] = true
	}

	byLabel := make(map[string][]*models.Card)
	for _, card := range c.model.AllCards() {
		for _, labelID := range card.IDLabels {
			byLabel[labelID] = append(byLabel[labelID], card)
		}
	}
	labelIDs := make([]string, 0, len(byLabel))
	for labelID := range byLabel {
		labelIDs = append(labelIDs, labelID)
	}
	sort.Strings(labelIDs)

	totalLinks := 0
	for _, labelID := range labelIDs {
		cards := byLabel[labelID]
		for _, card := range cards {
			words := significantWords(card.Name, ignore)
			if len(words) == 0 {
				continue
			}

			var candidates []*models.Card
			for _, other := range cards {
				if other.Name == card.Name {
					continue
				}
				if sharesWord(words, significantWords(other.Name, ignore)) {
					candidates = append(candidates, other)
				}
			}
			if len(candidates) == 0 {
				continue
			}
			if card.Badges.AttachmentsByType.Trello.Card >= maxCardAttachments {
				c.log.Debug("attachment budget exhausted", "card", card.Name)
				continue
			}

			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].DateLastActivity.After(candidates[j].DateLastActivity)
			})

			var toLink []*models.Card
			for _, candidate := range candidates {
				if alreadyLinked(card, candidate) {
					continue
				}
				if card.Badges.AttachmentsByType.Trello.Card >= maxCardAttachments ||
					totalLinks >= maxLinksPerRun ||
					previouslyUnlinked(card, candidate) ||
					candidate.DueComplete {
					continue
				}
				toLink = append(toLink, candidate)
				card.Badges.AttachmentsByType.Trello.Card++
				totalLinks++
			}

			for _, candidate := range toLink {
				c.log.Info("auto-linking", "card", card.Name, "related", candidate.Name)
				params := url.Values{"url": {candidate.ShortURL}}
				if err := c.client.Post(ctx, fmt.Sprintf("/cards/%s/attachments", card.ID), params, nil); err != nil {
					c.log.Warn("auto-link failed", "card", card.Name, "error", err)
					continue
				}
				card.Attachments = append(card.Attachments, models.Attachment{URL: candidate.ShortURL})
			}
		}
	}
	return nil
}

// alreadyLinked reports whether card carries an attachment pointing at
// candidate.
func alreadyLinked(card, candidate *models.Card) bool {
	if candidate.ShortURL == "" {
		return true
	}
	for _, attachment := range card.Attachments {
		if strings.Contains(attachment.URL, candidate.ShortURL) {
			return true
		}
	}
	return false
}

// previouslyUnlinked reports whether an attachment pointing at
// candidate was removed from card before. A removal is a human
// decision, not to be overridden.
func previouslyUnlinked(card, candidate *models.Card) bool {
	for _, action := range card.Actions {
		if !action.IsAttachmentRemoval() || action.Data.Attachment == nil {
			continue
		}
		if strings.Contains(action.Data.Attachment.Name, candidate.ShortURL) {
			return true
		}
	}
	return false
}

// significantWords lowercases the title and keeps words longer than
// three characters that are not ignored.
func significantWords(title string, ignore map[string]bool) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(title)) {
		if len(word) > 3 && !ignore[word] {
			words[word] = true
		}
	}
	return words
}

func sharesWord(a, b map[string]bool) bool {
	for word := range a {
		if b[word] {
			return true
		}
	}
	return false
}
