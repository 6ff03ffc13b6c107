package models

import (
	"fmt"
	"strings"
)

// LinkKind discriminates the two shapes of attachment-encoded links.
type LinkKind string

const (
	// ParentLink marks a spawned card whose CardID is the card owning
	// the originating checklist; completing the spawned card completes
	// the checklist item.
	ParentLink LinkKind = "parent"
	// DependentLink marks a prerequisite card whose CardID is the card
	// that depends on it; completing the prerequisite checks the item
	// on the dependent card's checklist.
	DependentLink LinkKind = "dependent"
)

// AttachmentLink is the synthetic relationship record stored as an
// attachment's display name on a spawned card, in the form
// "parent:<cardId>|checklistId:<id>|checkItemId:<id>". It is the only
// persistent record of parent/child task relationships; the linker
// re-discovers relationships by decoding these after every restart.
type AttachmentLink struct {
	Kind        LinkKind
	CardID      string
	ChecklistID string
	CheckItemID string
}

// Encode renders the link in its attachment-name wire form.
func (l AttachmentLink) Encode() string {
	return fmt.Sprintf("%s:%s|checklistId:%s|checkItemId:%s",
		l.Kind, l.CardID, l.ChecklistID, l.CheckItemID)
}

// ParseAttachmentLink decodes an attachment name of the key:value|...
// grammar. Only the two known shapes are accepted: a name must carry
// exactly one of the parent/dependent keys plus both checklist and
// check-item identifiers. Anything else is not a link and is ignored by
// the caller.
func ParseAttachmentLink(name string) (AttachmentLink, bool) {
	var link AttachmentLink
	if !strings.Contains(name, ":") {
		return link, false
	}
	for _, pair := range strings.Split(name, "|") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || value == "" {
			return AttachmentLink{}, false
		}
		switch key {
		case string(ParentLink), string(DependentLink):
			if link.Kind != "" {
				return AttachmentLink{}, false
			}
			link.Kind = LinkKind(key)
			link.CardID = value
		case "checklistId":
			link.ChecklistID = value
		case "checkItemId":
			link.CheckItemID = value
		default:
			return AttachmentLink{}, false
		}
	}
	if link.Kind == "" || link.ChecklistID == "" || link.CheckItemID == "" {
		return AttachmentLink{}, false
	}
	return link, true
}
