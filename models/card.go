package models

import (
	"encoding/json"
	"time"
)

// Card is a single work item on a board, as returned by the Trello API
// with attachments and the filtered action history included.
type Card struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Desc             string       `json:"desc,omitempty"`
	Due              *time.Time   `json:"due"`
	DueComplete      bool         `json:"dueComplete"`
	IDList           string       `json:"idList"`
	IDLabels         []string     `json:"idLabels"`
	Labels           []Label      `json:"labels,omitempty"`
	Pos              float64      `json:"pos"`
	ShortURL         string       `json:"shortUrl"`
	DateLastActivity time.Time    `json:"dateLastActivity"`
	Badges           Badges       `json:"badges"`
	Attachments      []Attachment `json:"attachments,omitempty"`
	Actions          []Action     `json:"actions,omitempty"`
}

// HasDueDate reports whether the card carries a due date.
func (c *Card) HasDueDate() bool {
	return c.Due != nil
}

// HasLabel reports whether the card carries the given label id.
func (c *Card) HasLabel(labelID string) bool {
	for _, id := range c.IDLabels {
		if id == labelID {
			return true
		}
	}
	return false
}

// Label is a board label; cards reference labels by id.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attachment is a file, URL, or synthetic link attached to a card. For
// attachment-encoded dependency links the Name carries the payload.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Badges are the remote-computed summary counts exposed alongside a card.
type Badges struct {
	Attachments       int               `json:"attachments"`
	AttachmentsByType AttachmentsByType `json:"attachmentsByType"`
}

// AttachmentsByType breaks the attachment badge down by attachment kind.
type AttachmentsByType struct {
	Trello TrelloAttachmentCounts `json:"trello"`
}

// TrelloAttachmentCounts counts card-to-card and card-to-board links.
type TrelloAttachmentCounts struct {
	Board int `json:"board"`
	Card  int `json:"card"`
}

// Action is one event from a card's history log. Only updateCard events
// (list moves, due-date edits) and deleteAttachmentFromCard events are
// ever requested from the API.
type Action struct {
	ID   string     `json:"id"`
	Type string     `json:"type"`
	Date time.Time  `json:"date"`
	Data ActionData `json:"data"`
}

// ActionData is the discriminating payload of an action. Which fields
// are set depends on what the event describes.
type ActionData struct {
	Card       *ActionCard                `json:"card,omitempty"`
	ListBefore *ListRef                   `json:"listBefore,omitempty"`
	ListAfter  *ListRef                   `json:"listAfter,omitempty"`
	Old        map[string]json.RawMessage `json:"old,omitempty"`
	Attachment *Attachment                `json:"attachment,omitempty"`
}

// ActionCard carries the post-change card fields of an updateCard event.
type ActionCard struct {
	ID  string     `json:"id"`
	Due *time.Time `json:"due"`
}

// ListRef identifies a list inside an action payload.
type ListRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// IsListMove reports whether the action describes a card moving between
// lists.
func (a Action) IsListMove() bool {
	return a.Type == "updateCard" && a.Data.ListBefore != nil && a.Data.ListAfter != nil
}

// IsDueChange reports whether the action describes a due-date edit. The
// "due" key being present in data.old is what marks the edit; its value
// may be null (the date was first set by this edit).
func (a Action) IsDueChange() bool {
	if a.Type != "updateCard" {
		return false
	}
	_, ok := a.Data.Old["due"]
	return ok
}

// OldDue returns the due date the card had before a due-date edit, or
// nil when the edit set the date for the first time.
func (a Action) OldDue() *time.Time {
	raw, ok := a.Data.Old["due"]
	if !ok {
		return nil
	}
	var due *time.Time
	if err := json.Unmarshal(raw, &due); err != nil {
		return nil
	}
	return due
}

// NewDue returns the due date a due-date edit produced, or nil when the
// edit cleared the date.
func (a Action) NewDue() *time.Time {
	if a.Data.Card == nil {
		return nil
	}
	return a.Data.Card.Due
}

// IsAttachmentRemoval reports whether the action describes an attachment
// being deleted from the card.
func (a Action) IsAttachmentRemoval() bool {
	return a.Type == "deleteAttachmentFromCard" && a.Data.Attachment != nil
}
