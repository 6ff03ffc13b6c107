// Package board implements the controller that pulls a board snapshot
// from Trello, exposes grooming commands over it, and keeps the local
// snapshot consistent with every mutation it issues so later rules in
// the same run observe earlier side effects without a re-fetch.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/josephgoksu/BoardWing/internal/dates"
	"github.com/josephgoksu/BoardWing/internal/filters"
	"github.com/josephgoksu/BoardWing/models"
	"github.com/josephgoksu/BoardWing/trello"
)

// cardListQuery asks for attachments plus the two action types the
// grooming rules reason about.
const cardListQuery = "?attachments=true&actions=deleteAttachmentFromCard,updateCard"

// Controller owns one board's snapshot and the command surface over it.
type Controller struct {
	model  *models.BoardModel
	client *trello.Client
	log    *slog.Logger
	fs     afero.Fs
	now    func() time.Time

	configDir string
	cacheDir  string

	// every list on the remote board, including ones the model does not
	// track; kept for AddListsToModelIfNameMeetsConditions.
	allListsOnBoard []models.List
}

// NewController wires a controller to a board model and API client.
func NewController(model *models.BoardModel, client *trello.Client, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		model:     model,
		client:    client,
		log:       logger,
		fs:        afero.NewOsFs(),
		now:       time.Now,
		configDir: "config",
		cacheDir:  "cache",
	}
}

// WithFs swaps the filesystem used for config and cache files.
func (c *Controller) WithFs(fs afero.Fs) *Controller {
	c.fs = fs
	return c
}

// WithClock swaps the time source.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// WithDirs sets the config and cache directories.
func (c *Controller) WithDirs(configDir, cacheDir string) *Controller {
	c.configDir = configDir
	c.cacheDir = cacheDir
	return c
}

// Model exposes the snapshot's read-only query surface.
func (c *Controller) Model() *models.BoardModel {
	return c.model
}

// NumRequests reports how many API requests have been issued.
func (c *Controller) NumRequests() int {
	return c.client.NumRequests()
}

// BuildModel rebuilds the snapshot from scratch: lists, cards with
// attachments and action history, checklists with items, and labels.
func (c *Controller) BuildModel(ctx context.Context) error {
	c.log.Info("retrieving lists", "board", c.model.ID)

	var remoteLists []models.List
	if err := c.client.Get(ctx, fmt.Sprintf("/boards/%s/lists", c.model.ID), &remoteLists); err != nil {
		return fmt.Errorf("fetching lists: %w", err)
	}
	c.allListsOnBoard = remoteLists

	for _, remote := range remoteLists {
		for _, token := range c.model.ListNames() {
			if !strings.Contains(strings.ToLower(remote.Name), strings.ToLower(token)) {
				continue
			}
			cards, err := c.fetchListCards(ctx, remote.ID)
			if err != nil {
				return err
			}
			c.model.AddList(token, &models.List{ID: remote.ID, Name: remote.Name, Cards: cards})
		}
	}

	var checklists []*models.Checklist
	if err := c.client.Get(ctx, fmt.Sprintf("/boards/%s/checklists", c.model.ID), &checklists); err != nil {
		return fmt.Errorf("fetching checklists: %w", err)
	}
	for _, checklist := range checklists {
		c.model.Checklists[checklist.ID] = checklist
	}

	c.log.Info("retrieving labels", "board", c.model.ID)
	var labels []models.Label
	if err := c.client.Get(ctx, fmt.Sprintf("/boards/%s/labels", c.model.ID), &labels); err != nil {
		return fmt.Errorf("fetching labels: %w", err)
	}
	for _, label := range labels {
		if label.ID != "" && label.Name != "" {
			c.model.Labels[label.Name] = label.ID
		}
	}
	return nil
}

func (c *Controller) fetchListCards(ctx context.Context, listID string) ([]*models.Card, error) {
	var cards []*models.Card
	path := fmt.Sprintf("/lists/%s/cards%s", listID, cardListQuery)
	if err := c.client.Get(ctx, path, &cards); err != nil {
		return nil, fmt.Errorf("fetching cards for list %s: %w", listID, err)
	}
	return cards, nil
}

// CardCreate carries the fields of a card to be created.
type CardCreate struct {
	Name     string
	Desc     string
	Due      *time.Time
	IDLabels []string
	ListID   string // defaults to the inbox list
}

// AddCard creates a card and patches it into the snapshot.
func (c *Controller) AddCard(ctx context.Context, create CardCreate) (*models.Card, error) {
	listID := create.ListID
	if listID == "" {
		if inbox := c.model.List("inbox"); inbox != nil {
			listID = inbox.ID
		}
	}
	if listID == "" {
		return nil, fmt.Errorf("adding card %q: no target list", create.Name)
	}

	params := url.Values{}
	params.Set("name", create.Name)
	if create.Due != nil {
		params.Set("due", create.Due.UTC().Format(time.RFC3339))
	}
	if create.Desc != "" {
		params.Set("desc", create.Desc)
	}
	if len(create.IDLabels) > 0 {
		params.Set("idLabels", strings.Join(create.IDLabels, ","))
	}

	var created models.Card
	if err := c.client.Post(ctx, "/cards?idList="+listID, params, &created); err != nil {
		return nil, fmt.Errorf("adding card %q: %w", create.Name, err)
	}
	created.IDList = listID
	if created.IDLabels == nil {
		created.IDLabels = append([]string(nil), create.IDLabels...)
	}

	if list := c.model.ListByID(listID); list != nil {
		list.Cards = append(list.Cards, &created)
	}
	return &created, nil
}

// DeleteCard removes a card remotely and from the snapshot.
func (c *Controller) DeleteCard(ctx context.Context, cardID string) error {
	if err := c.client.Delete(ctx, "/cards/"+cardID); err != nil {
		return fmt.Errorf("deleting card %s: %w", cardID, err)
	}
	c.removeCardFromSnapshot(cardID)
	return nil
}

// MoveCardsFromToIf moves every card in the source lists that passes
// the filter to the top of the destination list.
func (c *Controller) MoveCardsFromToIf(ctx context.Context, fromListIDs []string, toListID string, filter filters.Filter) error {
	for _, fromListID := range fromListIDs {
		from := c.model.ListByID(fromListID)
		if from == nil {
			continue
		}
		// iterate a copy: moving mutates the list
		cards := append([]*models.Card(nil), from.Cards...)
		for _, card := range cards {
			if !filter(card) {
				continue
			}
			path := fmt.Sprintf("/cards/%s?idList=%s&pos=top", card.ID, toListID)
			if err := c.client.Put(ctx, path); err != nil {
				c.log.Warn("move failed", "card", card.Name, "error", err)
				continue
			}
			c.moveCardInSnapshot(card, fromListID, toListID)
		}
	}
	return nil
}

// AssignDueDatesIf assigns a due date dueInDays from now to every card
// in the list that passes the filter. A non-zero randomStagger spreads
// assignments up to that many days either side of the target, never
// before today.
func (c *Controller) AssignDueDatesIf(ctx context.Context, listID string, dueInDays int, filter filters.Filter, randomStagger int) error {
	list := c.model.ListByID(listID)
	if list == nil {
		return nil
	}
	for _, card := range list.Cards {
		if !filter(card) {
			continue
		}
		days := dueInDays
		if randomStagger > 0 {
			stagger := rand.Intn(randomStagger + 1)
			if rand.Intn(2) == 0 {
				stagger = -stagger
			}
			days = max(dueInDays+stagger, 0)
		}
		due := dates.NDaysFromDate(c.now(), days)
		c.log.Info("assigning due date", "card", card.Name, "due", due)

		params := url.Values{"due": {due.UTC().Format(time.RFC3339)}}
		if err := c.client.Put(ctx, fmt.Sprintf("/cards/%s?%s", card.ID, params.Encode())); err != nil {
			c.log.Warn("due-date assignment failed", "card", card.Name, "error", err)
			continue
		}
		card.Due = &due
	}
	return nil
}

// AddLabelToCardsIfTitleContains applies the named label to every card
// whose title contains one of the keywords (case-insensitive) and does
// not already carry it.
func (c *Controller) AddLabelToCardsIfTitleContains(ctx context.Context, labelName string, keywords []string) error {
	labelID := c.model.LabelID(labelName)
	if labelID == "" {
		return nil
	}
	lowered := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword != "" {
			lowered = append(lowered, strings.ToLower(keyword))
		}
	}

	for _, card := range c.model.AllCards() {
		name := strings.ToLower(card.Name)
		matched := false
		for _, keyword := range lowered {
			if strings.Contains(name, keyword) {
				matched = true
				break
			}
		}
		if !matched || card.HasLabel(labelID) {
			continue
		}
		if err := c.client.Post(ctx, fmt.Sprintf("/cards/%s/idLabels", card.ID), url.Values{"value": {labelID}}, nil); err != nil {
			c.log.Warn("labeling failed", "card", card.Name, "label", labelName, "error", err)
			continue
		}
		card.IDLabels = append(card.IDLabels, labelID)
	}
	return nil
}

// MarkCardsInListDone flags every dated, unfinished card in the list as
// due-complete.
func (c *Controller) MarkCardsInListDone(ctx context.Context, listID string) error {
	list := c.model.ListByID(listID)
	if list == nil {
		return nil
	}
	for _, card := range list.Cards {
		if !card.HasDueDate() || card.DueComplete {
			continue
		}
		if err := c.client.Put(ctx, fmt.Sprintf("/cards/%s?dueComplete=true", card.ID)); err != nil {
			c.log.Warn("mark-done failed", "card", card.Name, "error", err)
			continue
		}
		card.DueComplete = true
	}
	return nil
}

// DeleteCardsInListIfLabeled deletes every card in the list carrying
// the named label.
func (c *Controller) DeleteCardsInListIfLabeled(ctx context.Context, listID, labelName string) error {
	list := c.model.ListByID(listID)
	if list == nil {
		return nil
	}
	cards := append([]*models.Card(nil), list.Cards...)
	for _, card := range cards {
		labeled := false
		for _, label := range card.Labels {
			if label.Name == labelName {
				labeled = true
				break
			}
		}
		if !labeled {
			continue
		}
		if err := c.DeleteCard(ctx, card.ID); err != nil {
			c.log.Warn("delete failed", "card", card.Name, "error", err)
		}
	}
	return nil
}

// RemoveDueDateFromCardsInList strips the due date from every dated
// card in the list.
func (c *Controller) RemoveDueDateFromCardsInList(ctx context.Context, listID string) error {
	list := c.model.ListByID(listID)
	if list == nil {
		return nil
	}
	for _, card := range list.Cards {
		if !card.HasDueDate() {
			continue
		}
		if err := c.client.Put(ctx, fmt.Sprintf("/cards/%s?due=null", card.ID)); err != nil {
			c.log.Warn("due-date removal failed", "card", card.Name, "error", err)
			continue
		}
		card.Due = nil
	}
	return nil
}

// ParseDueDatesFromCardNames scans every undated card's title for a
// date token and, when one parses, assigns the date and strips the
// token from the title.
func (c *Controller) ParseDueDatesFromCardNames(ctx context.Context) error {
	for _, card := range c.model.AllCards() {
		if card.HasDueDate() {
			continue
		}
		parsed := dates.ParseDueDate(card.Name, nil, c.now())
		if parsed.Due == nil || parsed.CleanedText == "" {
			continue
		}
		params := url.Values{
			"due":  {parsed.Due.UTC().Format(time.RFC3339)},
			"name": {parsed.CleanedText},
		}
		if err := c.client.Put(ctx, fmt.Sprintf("/cards/%s?%s", card.ID, params.Encode())); err != nil {
			c.log.Warn("due-date parse update failed", "card", card.Name, "error", err)
			continue
		}
		card.Due = parsed.Due
		card.Name = parsed.CleanedText
	}
	return nil
}

// AddListsToModelIfNameMeetsConditions registers every remote list that
// passes all conditions and is not already tracked, fetching its cards.
// Lists added this way are keyed by their display name.
func (c *Controller) AddListsToModelIfNameMeetsConditions(ctx context.Context, conditions []func(models.List) bool) ([]*models.List, error) {
	var added []*models.List
	for _, remote := range c.allListsOnBoard {
		qualifies := true
		for _, condition := range conditions {
			if !condition(remote) {
				qualifies = false
				break
			}
		}
		if !qualifies {
			continue
		}
		if _, tracked := c.model.Lists[remote.Name]; tracked {
			continue
		}
		cards, err := c.fetchListCards(ctx, remote.ID)
		if err != nil {
			return added, err
		}
		list := &models.List{ID: remote.ID, Name: remote.Name, Cards: cards}
		c.model.AddList(remote.Name, list)
		added = append(added, list)
	}
	return added, nil
}

// ImportLists adds lists fetched by another board's controller to this
// snapshot, translating label ids through the source board's label set.
func (c *Controller) ImportLists(lists []*models.List, sourceLabels map[string]string) {
	for _, list := range lists {
		for _, card := range list.Cards {
			card.IDLabels = c.translateLabels(card.IDLabels, sourceLabels)
		}
		c.model.AddList(list.Name, list)
	}
}

// translateLabels maps label ids from another board onto this board's
// ids by matching label names.
func (c *Controller) translateLabels(sourceIDs []string, sourceLabels map[string]string) []string {
	var result []string
	for _, sourceID := range sourceIDs {
		for name, id := range sourceLabels {
			if id != sourceID {
				continue
			}
			if localID := c.model.LabelID(name); localID != "" {
				result = append(result, localID)
			}
		}
	}
	return result
}

func (c *Controller) moveCardInSnapshot(card *models.Card, fromListID, toListID string) {
	if from := c.model.ListByID(fromListID); from != nil {
		from.Cards = removeCard(from.Cards, card.ID)
	}
	if to := c.model.ListByID(toListID); to != nil {
		to.Cards = append([]*models.Card{card}, to.Cards...)
	}
	card.IDList = toListID
}

func (c *Controller) removeCardFromSnapshot(cardID string) {
	for _, name := range c.model.ListNames() {
		list := c.model.Lists[name]
		list.Cards = removeCard(list.Cards, cardID)
	}
}

func removeCard(cards []*models.Card, cardID string) []*models.Card {
	result := cards[:0]
	for _, card := range cards {
		if card.ID != cardID {
			result = append(result, card)
		}
	}
	return result
}
