package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() *BoardModel {
	m := NewBoardModel("board1", "inbox", "day")
	m.Lists["inbox"] = &List{ID: "L1", Name: "📥 Inbox", Cards: []*Card{
		{ID: "c1", Name: "Buy milk", IDList: "L1", ShortURL: "https://trello.com/c/aaa"},
	}}
	m.Lists["day"] = &List{ID: "L2", Name: "Day", Cards: []*Card{
		{ID: "c2", Name: "Write report", IDList: "L2", ShortURL: "https://trello.com/c/bbb"},
	}}
	m.Checklists["cl1"] = &Checklist{ID: "cl1", Name: "Tasks", IDCard: "c2", CheckItems: []*CheckItem{
		{ID: "ci1", IDChecklist: "cl1", Name: "Draft outline", State: "incomplete"},
		{ID: "ci2", IDChecklist: "cl1", Name: "Send it", State: "complete"},
	}}
	m.Labels = map[string]string{"Errands": "lab1", "Work": "lab2"}
	return m
}

func TestBoardModelQueries(t *testing.T) {
	m := testModel()

	assert.Len(t, m.AllCards(), 2)
	assert.ElementsMatch(t, []string{"Buy milk", "Write report"}, m.AllCardNames())

	require.NotNil(t, m.CardByID("c2"))
	assert.Equal(t, "Write report", m.CardByID("c2").Name)
	assert.Nil(t, m.CardByID("nope"))

	require.NotNil(t, m.CardByName("Buy milk"))
	assert.Equal(t, "c1", m.CardByName("Buy milk").ID)
	assert.Nil(t, m.CardByName("buy milk")) // exact match only

	require.NotNil(t, m.ListByID("L2"))
	assert.Equal(t, "Day", m.ListByID("L2").Name)
	assert.Nil(t, m.ListByID("L9"))

	assert.Len(t, m.AllCheckItems(), 2)
	require.NotNil(t, m.CheckItemByID("ci2"))
	assert.True(t, m.CheckItemByID("ci2").IsComplete())
	assert.False(t, m.CheckItemByID("ci1").IsComplete())

	assert.Equal(t, "lab1", m.LabelID("Errands"))
	assert.Equal(t, "", m.LabelID("Missing"))
	assert.Equal(t, []string{"Errands", "Work"}, m.LabelNames())
}

func TestCardUnmarshal(t *testing.T) {
	payload := `{
		"id": "c1",
		"name": "Pay rent",
		"due": "2025-01-10T12:00:00.000Z",
		"dueComplete": false,
		"idList": "L1",
		"idLabels": ["lab1"],
		"shortUrl": "https://trello.com/c/abc123",
		"dateLastActivity": "2025-01-08T09:30:00.000Z",
		"badges": {"attachments": 2, "attachmentsByType": {"trello": {"board": 0, "card": 1}}},
		"attachments": [{"id": "att1", "name": "parent:c9|checklistId:cl|checkItemId:ci", "url": "https://trello.com/c/xyz"}]
	}`

	var card Card
	require.NoError(t, json.Unmarshal([]byte(payload), &card))

	require.NotNil(t, card.Due)
	assert.Equal(t, time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC), card.Due.UTC())
	assert.True(t, card.HasDueDate())
	assert.True(t, card.HasLabel("lab1"))
	assert.False(t, card.HasLabel("lab2"))
	assert.Equal(t, 2, card.Badges.Attachments)
	assert.Equal(t, 1, card.Badges.AttachmentsByType.Trello.Card)

	link, ok := ParseAttachmentLink(card.Attachments[0].Name)
	require.True(t, ok)
	assert.Equal(t, ParentLink, link.Kind)
}

func TestActionUnmarshalListMove(t *testing.T) {
	payload := `{
		"id": "a1",
		"type": "updateCard",
		"date": "2025-01-07T10:00:00.000Z",
		"data": {
			"listBefore": {"id": "L2", "name": "Week"},
			"listAfter": {"id": "L1", "name": "Backlog"},
			"card": {"id": "c1"}
		}
	}`

	var action Action
	require.NoError(t, json.Unmarshal([]byte(payload), &action))
	assert.True(t, action.IsListMove())
	assert.False(t, action.IsDueChange())
	assert.Equal(t, "L2", action.Data.ListBefore.ID)
	assert.Equal(t, "L1", action.Data.ListAfter.ID)
}

func TestActionUnmarshalDueChange(t *testing.T) {
	setFirstTime := `{
		"id": "a2",
		"type": "updateCard",
		"date": "2025-01-07T10:00:00.000Z",
		"data": {
			"old": {"due": null},
			"card": {"id": "c1", "due": "2025-01-09T12:00:00.000Z"}
		}
	}`

	var action Action
	require.NoError(t, json.Unmarshal([]byte(setFirstTime), &action))
	assert.False(t, action.IsListMove())
	assert.True(t, action.IsDueChange())
	assert.Nil(t, action.OldDue())
	require.NotNil(t, action.NewDue())
	assert.Equal(t, 9, action.NewDue().UTC().Day())

	cleared := `{
		"id": "a3",
		"type": "updateCard",
		"date": "2025-01-07T11:00:00.000Z",
		"data": {
			"old": {"due": "2025-01-09T12:00:00.000Z"},
			"card": {"id": "c1", "due": null}
		}
	}`
	require.NoError(t, json.Unmarshal([]byte(cleared), &action))
	assert.True(t, action.IsDueChange())
	require.NotNil(t, action.OldDue())
	assert.Nil(t, action.NewDue())
}

func TestActionUnmarshalAttachmentRemoval(t *testing.T) {
	payload := `{
		"id": "a4",
		"type": "deleteAttachmentFromCard",
		"date": "2025-01-05T10:00:00.000Z",
		"data": {"attachment": {"id": "att1", "name": "https://trello.com/c/xyz"}}
	}`

	var action Action
	require.NoError(t, json.Unmarshal([]byte(payload), &action))
	assert.True(t, action.IsAttachmentRemoval())
	assert.False(t, action.IsListMove())
	assert.Equal(t, "https://trello.com/c/xyz", action.Data.Attachment.Name)
}
