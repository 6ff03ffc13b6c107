package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/josephgoksu/BoardWing/internal/objsync"
)

// SyncConfigJSONWithCard two-way syncs a local JSON config file with
// the description of the named board card. Literal edits on the card
// win, removals on either side propagate to the other, and the merged
// document is written back to the card, the file, and a cache snapshot
// used to detect the next round of changes.
func (c *Controller) SyncConfigJSONWithCard(ctx context.Context, fileName, cardName string) error {
	card := c.model.CardByName(cardName)
	if card == nil {
		c.log.Debug("config card absent, skipping sync", "card", cardName)
		return nil
	}
	if !objsync.IsJSONString(card.Desc) {
		c.log.Warn("config card description is not JSON, skipping sync", "card", cardName)
		return nil
	}

	configPath := filepath.Join(c.configDir, fileName)
	fileConfig, err := c.readObj(configPath)
	if err != nil {
		c.log.Warn("config file unreadable, skipping sync", "path", configPath, "error", err)
		return nil
	}

	var cardConfig objsync.Obj
	if err := json.Unmarshal([]byte(card.Desc), &cardConfig); err != nil {
		c.log.Warn("config card description undecodable, skipping sync", "card", cardName, "error", err)
		return nil
	}

	cachePath := filepath.Join(c.cacheDir, "old."+fileName)
	prevConfig, err := c.readObj(cachePath)
	if err != nil {
		prevConfig = objsync.Obj{}
	}

	// file-side literal edits overwrite the card's copy
	objsync.UpdateLiteralsByDotPath(cardConfig, objsync.DetectLiteralChanges(fileConfig, prevConfig))

	// removals on either side since the cached snapshot apply to both
	objsync.RemovePropsByDotPath(fileConfig, removalPaths(objsync.DetectRemovals(cardConfig, prevConfig)))
	objsync.RemovePropsByDotPath(cardConfig, removalPaths(objsync.DetectRemovals(fileConfig, prevConfig)))

	merged := objsync.SyncWithPreference(cardConfig, fileConfig)

	pretty, err := json.MarshalIndent(merged, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding merged config %s: %w", fileName, err)
	}

	params := url.Values{"desc": {string(pretty)}}
	if err := c.client.Put(ctx, fmt.Sprintf("/cards/%s?%s", card.ID, params.Encode())); err != nil {
		return fmt.Errorf("updating config card %q: %w", cardName, err)
	}
	card.Desc = string(pretty)

	if err := c.writeObj(cachePath, merged, false); err != nil {
		return err
	}
	return c.writeObj(configPath, merged, true)
}

// LoadConfigObj reads a JSON config file from the config directory.
// A missing or undecodable file yields an empty object.
func (c *Controller) LoadConfigObj(fileName string) objsync.Obj {
	obj, err := c.readObj(filepath.Join(c.configDir, fileName))
	if err != nil {
		c.log.Warn("config file unreadable", "file", fileName, "error", err)
		return objsync.Obj{}
	}
	return obj
}

func (c *Controller) readObj(path string) (objsync.Obj, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, err
	}
	var obj objsync.Obj
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return obj, nil
}

func (c *Controller) writeObj(path string, obj objsync.Obj, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(obj, "", "    ")
	} else {
		data, err = json.Marshal(obj)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(c.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func removalPaths(removals []objsync.RemovalInfo) [][]string {
	paths := make([][]string, 0, len(removals))
	for _, removal := range removals {
		paths = append(paths, removal.Path)
	}
	return paths
}
