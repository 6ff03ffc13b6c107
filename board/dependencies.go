package board

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/josephgoksu/BoardWing/internal/dates"
	"github.com/josephgoksu/BoardWing/models"
)

// UpdateTaskDependencies spawns a card for every open item on checklists
// with the given name and links it back to its owner card with a parent
// attachment, then propagates completion from spawned cards back to
// their checklist items. Cards in ignoreLists never propagate.
func (c *Controller) UpdateTaskDependencies(ctx context.Context, checklistName string, ignoreLists []*models.List) error {
	if err := c.spawnCardsFromCheckItems(ctx, checklistName, models.ParentLink); err != nil {
		return err
	}
	c.propagateCompletion(ctx, models.ParentLink, ignoreLists)
	return nil
}

// UpdateFollowupDependencies spawns cards like UpdateTaskDependencies
// but records the link with reversed semantics: the spawned card is a
// followup the owner card depends on.
func (c *Controller) UpdateFollowupDependencies(ctx context.Context, checklistName string, ignoreLists []*models.List) error {
	if err := c.spawnCardsFromCheckItems(ctx, checklistName, models.DependentLink); err != nil {
		return err
	}
	c.propagateCompletion(ctx, models.DependentLink, ignoreLists)
	return nil
}

// UpdatePrepDependencies links existing cards to checklist items that
// name them exactly, instead of spawning new cards. The attachment goes
// on the matched card and points back at the checklist's owner.
func (c *Controller) UpdatePrepDependencies(ctx context.Context, checklistName string, ignoreLists []*models.List) error {
	for _, checklistID := range c.model.ChecklistIDs() {
		checklist := c.model.Checklists[checklistID]
		if checklist.Name != checklistName {
			continue
		}
		owner := c.model.CardByID(checklist.IDCard)
		if owner == nil {
			continue
		}
		items := append([]*models.CheckItem(nil), checklist.CheckItems...)
		for _, item := range items {
			prepCard := c.model.CardByName(item.Name)
			if prepCard == nil {
				continue
			}
			newItem, err := c.replaceCheckItem(ctx, checklist, item, prepCard.ShortURL)
			if err != nil {
				c.log.Warn("check item rewrite failed", "item", item.Name, "error", err)
				continue
			}
			link := models.AttachmentLink{
				Kind:        models.DependentLink,
				CardID:      owner.ID,
				ChecklistID: checklist.ID,
				CheckItemID: newItem.ID,
			}
			c.attachLink(ctx, prepCard, link, owner.ShortURL)
		}
	}
	c.propagateCompletion(ctx, models.DependentLink, ignoreLists)
	return nil
}

// MarkCardsDoneIfLinkedCheckItemsDone closes every card referenced by a
// completed checklist item through an embedded short URL.
func (c *Controller) MarkCardsDoneIfLinkedCheckItemsDone(ctx context.Context) error {
	for _, item := range c.model.AllCheckItems() {
		if !item.IsComplete() || !strings.Contains(item.Name, " https://") {
			continue
		}
		for _, card := range c.model.AllCards() {
			if card.DueComplete || card.ShortURL == "" || !strings.Contains(item.Name, card.ShortURL) {
				continue
			}
			if err := c.client.Put(ctx, fmt.Sprintf("/cards/%s?dueComplete=true", card.ID)); err != nil {
				c.log.Warn("mark-done failed", "card", card.Name, "error", err)
				continue
			}
			card.DueComplete = true
		}
	}
	return nil
}

// spawnCardsFromCheckItems walks checklists with the given name and
// creates a card for every item that is still open, not already backed
// by a card, and not yet rewritten with a link. The item is rewritten to
// carry the new card's short URL and the new card gets an attachment
// encoding the link back to the item.
func (c *Controller) spawnCardsFromCheckItems(ctx context.Context, checklistName string, kind models.LinkKind) error {
	cardNames := c.model.AllCardNames()

	for _, checklistID := range c.model.ChecklistIDs() {
		checklist := c.model.Checklists[checklistID]
		if checklist.Name != checklistName {
			continue
		}
		owner := c.model.CardByID(checklist.IDCard)
		if owner == nil {
			continue
		}
		items := append([]*models.CheckItem(nil), checklist.CheckItems...)
		for _, item := range items {
			if item.IsComplete() || strings.Contains(item.Name, "https://") {
				continue
			}
			if backedByCard(item.Name, cardNames) {
				continue
			}

			parsed := dates.ParseDueDate(item.Name, owner.Due, c.now())
			child, err := c.AddCard(ctx, CardCreate{
				Name:     parsed.CleanedText,
				Due:      parsed.Due,
				IDLabels: owner.IDLabels,
			})
			if err != nil {
				c.log.Warn("card spawn failed", "item", item.Name, "error", err)
				continue
			}
			cardNames = append(cardNames, child.Name)

			newItem, err := c.replaceCheckItem(ctx, checklist, item, child.ShortURL)
			if err != nil {
				c.log.Warn("check item rewrite failed", "item", item.Name, "error", err)
				continue
			}
			link := models.AttachmentLink{
				Kind:        kind,
				CardID:      owner.ID,
				ChecklistID: checklist.ID,
				CheckItemID: newItem.ID,
			}
			c.attachLink(ctx, child, link, owner.ShortURL)
		}
	}
	return nil
}

// replaceCheckItem deletes an item and recreates it with the card's
// short URL appended, returning the replacement. Trello offers no
// rename call for check items, so delete+create it is.
func (c *Controller) replaceCheckItem(ctx context.Context, checklist *models.Checklist, item *models.CheckItem, shortURL string) (*models.CheckItem, error) {
	if err := c.client.Delete(ctx, fmt.Sprintf("/checklists/%s/checkItems/%s/", checklist.ID, item.ID)); err != nil {
		return nil, err
	}

	newName := strings.TrimRight(strings.Split(item.Name, "https://")[0], " ") + " " + shortURL
	var created models.CheckItem
	params := url.Values{"name": {newName}}
	if err := c.client.Post(ctx, fmt.Sprintf("/checklists/%s/checkItems/", checklist.ID), params, &created); err != nil {
		return nil, err
	}
	created.IDChecklist = checklist.ID

	for i, existing := range checklist.CheckItems {
		if existing.ID == item.ID {
			checklist.CheckItems[i] = &created
			break
		}
	}
	return &created, nil
}

// attachLink posts the encoded link as an attachment on the card and
// patches the snapshot's attachment counters.
func (c *Controller) attachLink(ctx context.Context, card *models.Card, link models.AttachmentLink, targetURL string) {
	params := url.Values{
		"name": {link.Encode()},
		"url":  {targetURL},
	}
	if err := c.client.Post(ctx, fmt.Sprintf("/cards/%s/attachments", card.ID), params, nil); err != nil {
		c.log.Warn("attachment failed", "card", card.Name, "error", err)
		return
	}
	card.Attachments = append(card.Attachments, models.Attachment{Name: link.Encode(), URL: targetURL})
	card.Badges.Attachments++
}

// propagateCompletion marks checklist items complete when the card
// linked to them via an attachment of the given kind is due-complete.
// Failures are logged and skipped.
func (c *Controller) propagateCompletion(ctx context.Context, kind models.LinkKind, ignoreLists []*models.List) {
	for _, card := range c.model.AllCards() {
		if !card.DueComplete || card.Badges.Attachments == 0 || cardInLists(card, ignoreLists) {
			continue
		}
		for _, attachment := range card.Attachments {
			link, ok := models.ParseAttachmentLink(attachment.Name)
			if !ok || link.Kind != kind {
				continue
			}
			item := c.model.CheckItemByID(link.CheckItemID)
			if item == nil || item.IsComplete() {
				continue
			}
			path := fmt.Sprintf("/cards/%s/checkItem/%s?state=complete", link.CardID, link.CheckItemID)
			if err := c.client.Put(ctx, path); err != nil {
				c.log.Warn("completion propagation failed", "card", card.Name, "error", err)
				continue
			}
			item.State = "complete"
		}
	}
}

// backedByCard reports whether any existing card name appears inside
// the checklist item's text.
func backedByCard(itemName string, cardNames []string) bool {
	for _, name := range cardNames {
		if name != "" && strings.Contains(itemName, name) {
			return true
		}
	}
	return false
}

func cardInLists(card *models.Card, lists []*models.List) bool {
	for _, list := range lists {
		if list != nil && card.IDList == list.ID {
			return true
		}
	}
	return false
}
