// Package models holds the in-memory board snapshot: lists, cards,
// checklists, and labels pulled from the Trello API at the start of each
// grooming run, plus the read-only query surface the grooming rules use.
// The snapshot is rebuilt from scratch every run and discarded at the
// end; mutations made during a run are patched in by the board
// controller so later rules see them without a re-fetch.
package models

import "sort"

// List is a named column of cards. Well-known lists (inbox, backlog,
// month, week, day, done, ...) are resolved by case-insensitive
// substring match against the remote list's display name.
type List struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Cards []*Card `json:"cards"`
}

// CardNames returns the names of the cards in the list.
func (l *List) CardNames() []string {
	names := make([]string, 0, len(l.Cards))
	for _, card := range l.Cards {
		names = append(names, card.Name)
	}
	return names
}

// Checklist is a named sub-list of discrete todo items attached to a card.
type Checklist struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	IDCard     string       `json:"idCard"`
	CheckItems []*CheckItem `json:"checkItems"`
}

// CheckItem is a single entry in a checklist. Its name may embed a
// due-date token and/or an appended card short URL.
type CheckItem struct {
	ID          string `json:"id"`
	IDChecklist string `json:"idChecklist"`
	Name        string `json:"name"`
	State       string `json:"state"`
}

// IsComplete reports whether the item has been checked off remotely.
func (ci *CheckItem) IsComplete() bool {
	return ci.State == "complete"
}

// BoardModel is the full snapshot of one board. Lists are keyed by the
// well-known name token the groomer cares about, not by the remote
// display name.
type BoardModel struct {
	ID         string
	Lists      map[string]*List
	Checklists map[string]*Checklist
	Labels     map[string]string // label name -> label id
}

// NewBoardModel returns an empty snapshot for the given board, with an
// empty list registered under each well-known name token.
func NewBoardModel(id string, listNames ...string) *BoardModel {
	m := &BoardModel{
		ID:         id,
		Lists:      make(map[string]*List, len(listNames)),
		Checklists: make(map[string]*Checklist),
		Labels:     make(map[string]string),
	}
	for _, name := range listNames {
		m.Lists[name] = &List{}
	}
	return m
}

// ListNames returns the registered list name tokens in stable order.
func (m *BoardModel) ListNames() []string {
	names := make([]string, 0, len(m.Lists))
	for name := range m.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the list registered under the given well-known name.
func (m *BoardModel) List(name string) *List {
	return m.Lists[name]
}

// AddList registers a list under the given name, replacing any previous
// entry.
func (m *BoardModel) AddList(name string, list *List) {
	m.Lists[name] = list
}

// ListByID resolves a list by its remote identifier.
func (m *BoardModel) ListByID(id string) *List {
	for _, name := range m.ListNames() {
		if m.Lists[name].ID == id {
			return m.Lists[name]
		}
	}
	return nil
}

// AllCards returns every card across every list, flattened.
func (m *BoardModel) AllCards() []*Card {
	var cards []*Card
	for _, name := range m.ListNames() {
		cards = append(cards, m.Lists[name].Cards...)
	}
	return cards
}

// AllCardNames returns the names of every card on the board.
func (m *BoardModel) AllCardNames() []string {
	var names []string
	for _, name := range m.ListNames() {
		names = append(names, m.Lists[name].CardNames()...)
	}
	return names
}

// CardByID resolves a card by its remote identifier.
func (m *BoardModel) CardByID(id string) *Card {
	for _, card := range m.AllCards() {
		if card.ID == id {
			return card
		}
	}
	return nil
}

// CardByName resolves a card by exact name match.
func (m *BoardModel) CardByName(name string) *Card {
	for _, card := range m.AllCards() {
		if card.Name == name {
			return card
		}
	}
	return nil
}

// ChecklistIDs returns the checklist identifiers in stable order.
func (m *BoardModel) ChecklistIDs() []string {
	ids := make([]string, 0, len(m.Checklists))
	for id := range m.Checklists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllCheckItems returns every checklist item across every checklist.
func (m *BoardModel) AllCheckItems() []*CheckItem {
	var items []*CheckItem
	for _, id := range m.ChecklistIDs() {
		items = append(items, m.Checklists[id].CheckItems...)
	}
	return items
}

// CheckItemByID resolves a checklist item by its remote identifier.
func (m *BoardModel) CheckItemByID(id string) *CheckItem {
	for _, item := range m.AllCheckItems() {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// LabelID resolves a label's remote identifier from its human-readable
// name. Returns "" when the board has no such label.
func (m *BoardModel) LabelID(name string) string {
	return m.Labels[name]
}

// LabelNames returns the names of every label on the board in stable
// order.
func (m *BoardModel) LabelNames() []string {
	names := make([]string, 0, len(m.Labels))
	for name := range m.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
