package history

import (
	"fmt"
	"time"

	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/util"
)

// SavedItem is a single playback record preserved in the local history.
type SavedItem struct {
	ItemID            string      `json:"item_id"`
	Name              string      `json:"name"`
	SeriesName        string      `json:"series_name"`
	Kind              source.Kind `json:"kind"`
	PositionMs        int64       `json:"position_ms"`
	DurationMs        int64       `json:"duration_ms"`
	WatchedPercentage float64     `json:"watched_percentage"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// NewSavedItem builds a record for an item at the given playback position.
func NewSavedItem(item *source.MediaItem, positionMs int64) *SavedItem {
	record := &SavedItem{
		ItemID:     item.ID,
		Name:       item.Name,
		SeriesName: item.SeriesName,
		Kind:       item.Kind,
		PositionMs: positionMs,
		DurationMs: item.DurationMs(),
		UpdatedAt:  time.Now(),
	}

	if record.DurationMs > 0 {
		record.WatchedPercentage = util.Clamp(float64(positionMs)/float64(record.DurationMs)*100, 0, 100)
	}
	return record
}

func (s *SavedItem) String() string {
	if s.SeriesName != "" {
		return fmt.Sprintf("%s : %s (%.0f%%)", s.SeriesName, s.Name, s.WatchedPercentage)
	}
	return fmt.Sprintf("%s (%.0f%%)", s.Name, s.WatchedPercentage)
}
