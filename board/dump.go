package board

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// labeledCard pairs a card's name with its label names for diagnostics.
type labeledCard struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

// Dump writes diagnostic snapshots of the board to the cache directory:
// the label table, per-card label assignments, the names of cards with
// no label at all, and the full model.
func (c *Controller) Dump() error {
	labelNames := make(map[string]string, len(c.model.Labels))
	for name, id := range c.model.Labels {
		labelNames[id] = name
	}

	var labeled []labeledCard
	var unlabeled []string
	for _, card := range c.model.AllCards() {
		if len(card.IDLabels) == 0 {
			unlabeled = append(unlabeled, card.Name)
			continue
		}
		names := make([]string, 0, len(card.IDLabels))
		for _, id := range card.IDLabels {
			if name, ok := labelNames[id]; ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		labeled = append(labeled, labeledCard{Name: card.Name, Labels: names})
	}
	sort.Slice(labeled, func(i, j int) bool { return labeled[i].Name < labeled[j].Name })
	sort.Strings(unlabeled)

	files := map[string]any{
		"labels.json":     c.model.Labels,
		"label-data.json": labeled,
		"unlabeled.json":  unlabeled,
		"model.json":      c.model.Lists,
	}
	for name, payload := range files {
		if err := c.dumpJSON(name, payload); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) dumpJSON(fileName string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", fileName, err)
	}
	path := filepath.Join(c.cacheDir, fileName)
	if err := c.fs.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := afero.WriteFile(c.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
