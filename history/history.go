// Package history tracks and persists local playback progress records.
package history

import (
	"github.com/metafates/gache"

	"github.com/jellysan-cli/jellysan/filesystem"
	"github.com/jellysan-cli/jellysan/where"
)

// cacher is the disk-backed registry for playback progress records.
var cacher = gache.New[map[string]*SavedItem](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns all saved playback records keyed by item id.
func Get() (map[string]*SavedItem, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedItem), nil
	}
	return cached, nil
}

// Save persists the playback progress of an item. The maximum observed
// percentage wins, so re-watching an item never regresses it.
func Save(record *SavedItem) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	if existing, exists := saved[record.ItemID]; exists {
		if record.WatchedPercentage < existing.WatchedPercentage {
			record.WatchedPercentage = existing.WatchedPercentage
		}
	}
	saved[record.ItemID] = record

	return cacher.Set(saved)
}

// Remove permanently deletes an item's playback record.
func Remove(itemID string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, itemID)
	return cacher.Set(saved)
}
