// Package source defines the domain models for playable media items and their streamable variants.
package source

import (
	"fmt"

	"github.com/jellysan-cli/jellysan/ticks"
	"github.com/jellysan-cli/jellysan/util"
	"github.com/samber/mo"
)

// Kind classifies the playable unit.
type Kind string

const (
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindAudiobook Kind = "audiobook"
)

// MediaItem is an immutable-per-fetch description of a playable unit
// (movie, episode, track, audiobook chapter). The engine holds a read-only
// reference for the duration of playback; ownership stays with the catalog layer.
type MediaItem struct {
	// Server-assigned unique id.
	ID string `json:"id"`
	// Display name (e.g. "Pilot").
	Name string `json:"name"`
	// Media kind.
	Kind Kind `json:"kind"`
	// Total duration in server ticks.
	DurationTicks int64 `json:"duration_ticks"`
	// Last-known server-side resume position in ticks, when the server has one.
	ResumeTicks mo.Option[int64] `json:"resume_ticks"`

	// Parent/series linkage.
	SeriesID   string `json:"series_id,omitempty"`
	SeriesName string `json:"series_name,omitempty"`
	// Episode/track ordering inside the parent.
	IndexNumber int `json:"index_number,omitempty"`
	// Season/disc ordering.
	ParentIndexNumber int `json:"parent_index_number,omitempty"`
}

// String returns the canonical display representation of the item.
func (i *MediaItem) String() string {
	if i.SeriesName != "" {
		return fmt.Sprintf("%s - %s", i.SeriesName, i.Name)
	}
	return i.Name
}

// Dirname returns a filesystem-safe directory name for the item.
func (i *MediaItem) Dirname() string {
	return util.SanitizeFilename(i.String())
}

// DurationMs returns the item duration in device milliseconds.
func (i *MediaItem) DurationMs() int64 {
	return ticks.ToMilliseconds(i.DurationTicks)
}

// ResumeMs returns the server-side resume position in milliseconds, when present.
func (i *MediaItem) ResumeMs() mo.Option[int64] {
	if t, ok := i.ResumeTicks.Get(); ok {
		return mo.Some(ticks.ToMilliseconds(t))
	}
	return mo.None[int64]()
}
