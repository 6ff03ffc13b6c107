package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/BoardWing/models"
)

func TestUpdateTaskDependenciesSpawnsAndLinks(t *testing.T) {
	fake := newFakeTrello(t)
	fake.route("POST", "/cards", `{"id": "child1", "name": "Call plumber", "shortUrl": "https://trello.com/c/child1"}`)
	fake.route("POST", "/checklists/CL1/checkItems/", `{"id": "i1b", "name": "Call plumber https://trello.com/c/child1"}`)

	model := models.NewBoardModel("b1", "inbox")
	parentDue := testNow.AddDate(0, 0, 5)
	parent := datedCard("p1", "Fix bathroom", parentDue)
	parent.IDLabels = []string{"lab1"}
	existing := testCard("c5", "Existing card")
	model.AddList("inbox", &models.List{ID: "L1", Cards: []*models.Card{parent, existing}})
	model.Checklists["CL1"] = &models.Checklist{
		ID:     "CL1",
		Name:   "Tasks",
		IDCard: "p1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Call plumber @Thu", State: "incomplete"},
			{ID: "i2", IDChecklist: "CL1", Name: "Done already", State: "complete"},
			{ID: "i3", IDChecklist: "CL1", Name: "Linked https://trello.com/c/x", State: "incomplete"},
			{ID: "i4", IDChecklist: "CL1", Name: "Existing card follow-through", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdateTaskDependencies(context.Background(), "Tasks", nil))

	// only the first item qualifies for spawning
	var cardPosts, itemPosts, attachPosts []recordedRequest
	for _, req := range fake.calls("POST") {
		switch req.Path {
		case "/cards":
			cardPosts = append(cardPosts, req)
		case "/checklists/CL1/checkItems/":
			itemPosts = append(itemPosts, req)
		case "/cards/child1/attachments":
			attachPosts = append(attachPosts, req)
		}
	}
	require.Len(t, cardPosts, 1)
	assert.Equal(t, "Call plumber", cardPosts[0].Query.Get("name"))
	assert.Equal(t, "lab1", cardPosts[0].Query.Get("idLabels"))
	assert.NotEmpty(t, cardPosts[0].Query.Get("due"))

	// the spawned card inherits a parsed date, not the parent's
	due, err := time.Parse(time.RFC3339, cardPosts[0].Query.Get("due"))
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, due.Local().Weekday())

	// the item is rewritten with the new card's short URL appended
	deletes := fake.calls("DELETE")
	require.Len(t, deletes, 1)
	assert.Equal(t, "/checklists/CL1/checkItems/i1/", deletes[0].Path)
	require.Len(t, itemPosts, 1)
	assert.Equal(t, "Call plumber @Thu https://trello.com/c/child1", itemPosts[0].Query.Get("name"))

	// the link attachment points back at the owning card and new item
	require.Len(t, attachPosts, 1)
	assert.Equal(t, "parent:p1|checklistId:CL1|checkItemId:i1b", attachPosts[0].Query.Get("name"))
	assert.Equal(t, parent.ShortURL, attachPosts[0].Query.Get("url"))

	// snapshot: replacement item in place, spawned card in the inbox
	items := model.Checklists["CL1"].CheckItems
	assert.Equal(t, "i1b", items[0].ID)
	child := model.CardByID("child1")
	require.NotNil(t, child)
	require.Len(t, child.Attachments, 1)
	assert.Equal(t, 1, child.Badges.Attachments)
}

func TestUpdateTaskDependenciesInheritsParentDue(t *testing.T) {
	fake := newFakeTrello(t)
	fake.route("POST", "/cards", `{"id": "child1", "name": "No token here", "shortUrl": "https://trello.com/c/child1"}`)
	fake.route("POST", "/checklists/CL1/checkItems/", `{"id": "i1b"}`)

	model := models.NewBoardModel("b1", "inbox")
	parentDue := testNow.AddDate(0, 0, 5)
	parent := datedCard("p1", "Fix bathroom", parentDue)
	model.AddList("inbox", &models.List{ID: "L1", Cards: []*models.Card{parent}})
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Tasks", IDCard: "p1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "No token here", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdateTaskDependencies(context.Background(), "Tasks", nil))

	for _, req := range fake.calls("POST") {
		if req.Path == "/cards" {
			assert.Equal(t, parentDue.UTC().Format(time.RFC3339), req.Query.Get("due"))
		}
	}
}

func TestTaskCompletionPropagation(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "done")
	child := testCard("child1", "Call plumber")
	child.DueComplete = true
	child.IDList = "L9"
	child.Badges.Attachments = 1
	child.Attachments = []models.Attachment{
		{Name: "parent:p1|checklistId:CL1|checkItemId:i1"},
	}
	model.AddList("done", &models.List{ID: "L9", Cards: []*models.Card{child}})
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Groceries", IDCard: "p1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Call plumber https://trello.com/c/child1", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdateTaskDependencies(context.Background(), "Tasks", nil))

	puts := fake.calls("PUT")
	require.Len(t, puts, 1)
	assert.Equal(t, "/cards/p1/checkItem/i1", puts[0].Path)
	assert.Equal(t, "complete", puts[0].Query.Get("state"))
	assert.True(t, model.CheckItemByID("i1").IsComplete())
}

func TestCompletionPropagationSkipsIgnoredLists(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "pinned")
	child := testCard("child1", "Call plumber")
	child.DueComplete = true
	child.IDList = "L10"
	child.Badges.Attachments = 1
	child.Attachments = []models.Attachment{
		{Name: "parent:p1|checklistId:CL1|checkItemId:i1"},
	}
	pinned := &models.List{ID: "L10", Cards: []*models.Card{child}}
	model.AddList("pinned", pinned)
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Groceries", IDCard: "p1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Call plumber", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdateTaskDependencies(context.Background(), "Tasks", []*models.List{pinned}))
	assert.Empty(t, fake.calls("PUT"))
}

func TestUpdatePrepDependencies(t *testing.T) {
	fake := newFakeTrello(t)
	fake.route("POST", "/checklists/CL1/checkItems/", `{"id": "i1b", "name": "Sharpen saw https://trello.com/c/prep1"}`)

	model := models.NewBoardModel("b1", "inbox")
	owner := testCard("o1", "Cut down tree")
	prep := testCard("prep1", "Sharpen saw")
	model.AddList("inbox", &models.List{ID: "L1", Cards: []*models.Card{owner, prep}})
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Prep", IDCard: "o1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Sharpen saw", State: "incomplete"},
			{ID: "i2", IDChecklist: "CL1", Name: "No matching card", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdatePrepDependencies(context.Background(), "Prep", nil))

	// no cards are spawned for prep items
	for _, req := range fake.calls("POST") {
		assert.NotEqual(t, "/cards", req.Path)
	}

	var attachPosts, itemPosts []recordedRequest
	for _, req := range fake.calls("POST") {
		switch req.Path {
		case "/cards/prep1/attachments":
			attachPosts = append(attachPosts, req)
		case "/checklists/CL1/checkItems/":
			itemPosts = append(itemPosts, req)
		}
	}
	require.Len(t, itemPosts, 1)
	assert.Equal(t, "Sharpen saw https://trello.com/c/prep1", itemPosts[0].Query.Get("name"))

	require.Len(t, attachPosts, 1)
	assert.Equal(t, "dependent:o1|checklistId:CL1|checkItemId:i1b", attachPosts[0].Query.Get("name"))
	assert.Equal(t, owner.ShortURL, attachPosts[0].Query.Get("url"))
}

func TestUpdateFollowupDependenciesUsesDependentLinks(t *testing.T) {
	fake := newFakeTrello(t)
	fake.route("POST", "/cards", `{"id": "f1", "name": "Check on invoice", "shortUrl": "https://trello.com/c/f1"}`)
	fake.route("POST", "/checklists/CL1/checkItems/", `{"id": "i1b"}`)

	model := models.NewBoardModel("b1", "inbox")
	owner := testCard("o1", "Send invoice")
	model.AddList("inbox", &models.List{ID: "L1", Cards: []*models.Card{owner}})
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Followup", IDCard: "o1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Check on invoice", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdateFollowupDependencies(context.Background(), "Followup", nil))

	var attachNames []string
	for _, req := range fake.calls("POST") {
		if req.Path == "/cards/f1/attachments" {
			attachNames = append(attachNames, req.Query.Get("name"))
		}
	}
	require.Len(t, attachNames, 1)
	assert.Equal(t, "dependent:o1|checklistId:CL1|checkItemId:i1b", attachNames[0])
}

func TestDependencyLinkerIdempotentAcrossRuns(t *testing.T) {
	fake := newFakeTrello(t)
	fake.route("POST", "/cards", `{"id": "child1", "name": "Call plumber", "shortUrl": "https://trello.com/c/child1"}`)
	fake.route("POST", "/checklists/CL1/checkItems/", `{"id": "i1b", "name": "Call plumber https://trello.com/c/child1"}`)

	model := models.NewBoardModel("b1", "inbox", "done")
	parent := testCard("p1", "Fix bathroom")
	model.AddList("inbox", &models.List{ID: "L1", Cards: []*models.Card{parent}})
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Tasks", IDCard: "p1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Call plumber", State: "incomplete"},
		},
	}

	// a finished linked card whose item still needs marking
	finished := testCard("f1", "Buy sealant")
	finished.DueComplete = true
	finished.IDList = "L9"
	finished.Badges.Attachments = 1
	finished.Attachments = []models.Attachment{
		{Name: "parent:p2|checklistId:CL2|checkItemId:j1"},
	}
	model.AddList("done", &models.List{ID: "L9", Cards: []*models.Card{finished}})
	model.Checklists["CL2"] = &models.Checklist{
		ID: "CL2", Name: "Errands", IDCard: "p2",
		CheckItems: []*models.CheckItem{
			{ID: "j1", IDChecklist: "CL2", Name: "Buy sealant", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.UpdateTaskDependencies(context.Background(), "Tasks", nil))
	require.NoError(t, controller.UpdateTaskDependencies(context.Background(), "Tasks", nil))

	// second pass spawns nothing: the rewritten item carries a URL and
	// the spawned card's name backs it
	var cardPosts int
	for _, req := range fake.calls("POST") {
		if req.Path == "/cards" {
			cardPosts++
		}
	}
	assert.Equal(t, 1, cardPosts)
	assert.Len(t, fake.calls("DELETE"), 1)

	// the mark-complete call for j1 is not re-issued either
	puts := fake.calls("PUT")
	require.Len(t, puts, 1)
	assert.Equal(t, "/cards/p2/checkItem/j1", puts[0].Path)
}

func TestMarkCardsDoneIfLinkedCheckItemsDone(t *testing.T) {
	fake := newFakeTrello(t)

	model := models.NewBoardModel("b1", "inbox")
	linked := testCard("ps1", "Sharpen saw")
	alreadyDone := testCard("ps2", "Old prep")
	alreadyDone.DueComplete = true
	model.AddList("inbox", &models.List{ID: "L1", Cards: []*models.Card{linked, alreadyDone}})
	model.Checklists["CL1"] = &models.Checklist{
		ID: "CL1", Name: "Prep", IDCard: "o1",
		CheckItems: []*models.CheckItem{
			{ID: "i1", IDChecklist: "CL1", Name: "Sharpen saw https://trello.com/c/ps1", State: "complete"},
			{ID: "i2", IDChecklist: "CL1", Name: "Old prep https://trello.com/c/ps2", State: "complete"},
			{ID: "i3", IDChecklist: "CL1", Name: "Unlinked but complete", State: "complete"},
			{ID: "i4", IDChecklist: "CL1", Name: "Open item https://trello.com/c/ps1", State: "incomplete"},
		},
	}

	controller := fake.controller(model)
	require.NoError(t, controller.MarkCardsDoneIfLinkedCheckItemsDone(context.Background()))

	puts := fake.calls("PUT")
	require.Len(t, puts, 1)
	assert.Equal(t, "/cards/ps1", puts[0].Path)
	assert.Equal(t, "true", puts[0].Query.Get("dueComplete"))
	assert.True(t, linked.DueComplete)
}
