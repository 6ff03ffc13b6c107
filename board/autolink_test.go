package board

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/BoardWing/models"
)

func labeledTestCard(id, name, labelID string, lastActivity time.Time) *models.Card {
	c := testCard(id, name)
	c.IDLabels = []string{labelID}
	c.DateLastActivity = lastActivity
	return c
}

func attachmentURLs(reqs []recordedRequest, path string) []string {
	var urls []string
	for _, req := range reqs {
		if req.Path == path {
			urls = append(urls, req.Query.Get("url"))
		}
	}
	return urls
}

func TestAutoLinkSharedWordAndLabel(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "backlog")
	paint := labeledTestCard("a", "Paint garage door", "lab1", testNow)
	roof := labeledTestCard("b", "Garage roof repair", "lab1", testNow.Add(-time.Hour))
	taxes := labeledTestCard("c", "File taxes", "lab1", testNow)
	otherLabel := labeledTestCard("d", "Paint bedroom", "lab2", testNow)
	model.AddList("backlog", &models.List{ID: "L2", Cards: []*models.Card{paint, roof, taxes, otherLabel}})

	controller := fake.controller(model)
	require.NoError(t, controller.AutoLinkRelatedCards(context.Background(), nil))

	// "garage" is shared within lab1; "paint" crosses labels and does not count
	assert.Equal(t, []string{roof.ShortURL}, attachmentURLs(fake.calls("POST"), "/cards/a/attachments"))
	assert.Equal(t, []string{paint.ShortURL}, attachmentURLs(fake.calls("POST"), "/cards/b/attachments"))
	assert.Empty(t, attachmentURLs(fake.calls("POST"), "/cards/c/attachments"))
	assert.Empty(t, attachmentURLs(fake.calls("POST"), "/cards/d/attachments"))

	assert.Equal(t, 1, paint.Badges.AttachmentsByType.Trello.Card)
	require.Len(t, paint.Attachments, 1)
	assert.Equal(t, roof.ShortURL, paint.Attachments[0].URL)
}

func TestAutoLinkIgnoresShortAndIgnoredWords(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "backlog")
	// "the" is too short, "weekly" is ignored; nothing significant is shared
	a := labeledTestCard("a", "Buy the weekly groceries", "lab1", testNow)
	b := labeledTestCard("b", "Plan the weekly review", "lab1", testNow)
	model.AddList("backlog", &models.List{ID: "L2", Cards: []*models.Card{a, b}})

	controller := fake.controller(model)
	require.NoError(t, controller.AutoLinkRelatedCards(context.Background(), []string{"weekly"}))
	assert.Empty(t, fake.calls("POST"))
}

func TestAutoLinkSkipsLinkedCompleteAndUnlinked(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "backlog")
	hub := labeledTestCard("a", "Garage cleanup", "lab1", testNow)
	linked := labeledTestCard("b", "Garage shelving", "lab1", testNow)
	hub.Attachments = []models.Attachment{{URL: linked.ShortURL}}
	finished := labeledTestCard("c", "Garage sale", "lab1", testNow)
	finished.DueComplete = true
	rejected := labeledTestCard("d", "Garage door motor", "lab1", testNow)
	hub.Actions = []models.Action{{
		Type: "deleteAttachmentFromCard",
		Date: testNow.Add(-24 * time.Hour),
		Data: models.ActionData{Attachment: &models.Attachment{Name: "Garage door motor " + rejected.ShortURL}},
	}}
	fresh := labeledTestCard("e", "Garage lighting", "lab1", testNow)
	model.AddList("backlog", &models.List{ID: "L2", Cards: []*models.Card{hub, linked, finished, rejected, fresh}})

	controller := fake.controller(model)
	require.NoError(t, controller.AutoLinkRelatedCards(context.Background(), nil))

	assert.Equal(t, []string{fresh.ShortURL}, attachmentURLs(fake.calls("POST"), "/cards/a/attachments"))
}

func TestAutoLinkHonorsPerCardBudget(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "backlog")
	full := labeledTestCard("a", "Garage cleanup", "lab1", testNow)
	full.Badges.AttachmentsByType.Trello.Card = maxCardAttachments
	other := labeledTestCard("b", "Garage shelving", "lab1", testNow)
	model.AddList("backlog", &models.List{ID: "L2", Cards: []*models.Card{full, other}})

	controller := fake.controller(model)
	require.NoError(t, controller.AutoLinkRelatedCards(context.Background(), nil))

	assert.Empty(t, attachmentURLs(fake.calls("POST"), "/cards/a/attachments"))
	// the saturated card is still a valid link target
	assert.Equal(t, []string{full.ShortURL}, attachmentURLs(fake.calls("POST"), "/cards/b/attachments"))
}

func TestAutoLinkGlobalRunBudget(t *testing.T) {
	fake := newFakeTrello(t)

	// 12 fully related cards yield 12*10 candidate links under the
	// per-card cap; the run-wide budget must stop creation at 100.
	model := models.NewBoardModel("b1", "backlog")
	cards := make([]*models.Card, 0, 12)
	for i := 0; i < 12; i++ {
		card := labeledTestCard(fmt.Sprintf("c%02d", i), fmt.Sprintf("garage item%02d", i), "lab1", testNow)
		cards = append(cards, card)
	}
	model.AddList("backlog", &models.List{ID: "L2", Cards: cards})

	controller := fake.controller(model)
	require.NoError(t, controller.AutoLinkRelatedCards(context.Background(), nil))

	total := 0
	for _, req := range fake.calls("POST") {
		if strings.HasSuffix(req.Path, "/attachments") {
			total++
		}
	}
	assert.Equal(t, maxLinksPerRun, total)
}

func TestAutoLinkMostRecentCandidatesFirst(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "backlog")
	hub := labeledTestCard("a", "Garage cleanup", "lab1", testNow)
	hub.Badges.AttachmentsByType.Trello.Card = maxCardAttachments - 1
	stale := labeledTestCard("b", "Garage shelving", "lab1", testNow.Add(-48*time.Hour))
	recent := labeledTestCard("c", "Garage lighting", "lab1", testNow.Add(-time.Hour))
	model.AddList("backlog", &models.List{ID: "L2", Cards: []*models.Card{hub, stale, recent}})

	controller := fake.controller(model)
	require.NoError(t, controller.AutoLinkRelatedCards(context.Background(), nil))

	// one slot left: the most recently active candidate wins it
	assert.Equal(t, []string{recent.ShortURL}, attachmentURLs(fake.calls("POST"), "/cards/a/attachments"))
}
