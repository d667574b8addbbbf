// Package session models a single playback session and its server reporting.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/resolver"
	"github.com/jellysan-cli/jellysan/source"
)

// PlaySession ties an item, its resolved source and a session id together for
// the lifetime of one playback. A new session gets a new id even for the same
// item.
type PlaySession struct {
	ID        string
	Item      *source.MediaItem
	Source    *source.MediaSource
	Method    source.PlayMethod
	StreamURL string
	StartedAt time.Time

	AudioStreamIndex    mo.Option[int]
	SubtitleStreamIndex mo.Option[int]
}

// New creates a session from a resolution. The server-assigned play session id
// is used when present; local playback gets a generated one.
func New(res *resolver.Resolution) *PlaySession {
	id := res.PlaySessionID
	if id == "" {
		id = uuid.NewString()
	}

	return &PlaySession{
		ID:                  id,
		Item:                res.Item,
		Source:              res.Source,
		Method:              res.Method,
		StreamURL:           res.StreamURL,
		StartedAt:           time.Now(),
		AudioStreamIndex:    mo.None[int](),
		SubtitleStreamIndex: mo.None[int](),
	}
}

// SelectPreferredTracks picks audio and subtitle stream indexes by language.
// An empty audio language keeps the source default; an empty subtitle language
// leaves subtitles disabled.
func (s *PlaySession) SelectPreferredTracks(audioLang, subsLang string) {
	if audioLang != "" {
		for _, stream := range s.Source.StreamsOf(source.StreamAudio) {
			if strings.EqualFold(stream.Language, audioLang) {
				s.AudioStreamIndex = mo.Some(stream.Index)
				break
			}
		}
	}

	if subsLang != "" {
		for _, stream := range s.Source.StreamsOf(source.StreamSubtitle) {
			if strings.EqualFold(stream.Language, subsLang) {
				s.SubtitleStreamIndex = mo.Some(stream.Index)
				break
			}
		}
	}
}

// Report builds the wire payload for this session at the given position.
func (s *PlaySession) Report(positionTicks int64, paused bool) jellyfin.PlaybackReport {
	report := jellyfin.PlaybackReport{
		ItemID:        s.Item.ID,
		MediaSourceID: s.Source.ID,
		PlaySessionID: s.ID,
		PositionTicks: positionTicks,
		IsPaused:      paused,
		PlayMethod:    s.Method,
	}

	if index, ok := s.AudioStreamIndex.Get(); ok {
		report.AudioStreamIndex = &index
	}
	if index, ok := s.SubtitleStreamIndex.Get(); ok {
		report.SubtitleStreamIndex = &index
	}
	return report
}
