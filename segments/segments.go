// Package segments retrieves and applies intro and credits intervals.
//
// Segment data comes from the server's intro-skipper plugin or its media
// segments API. Absent data degrades gracefully: playback proceeds with no
// skip intervals.
package segments

import (
	"context"

	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/ticks"
)

// Interval is a continuous range within an item, in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Times holds the skip intervals known for one item.
type Times struct {
	Intro      Interval
	Credits    Interval
	HasIntro   bool
	HasCredits bool
}

// Fetch retrieves skip intervals for an item. The media segments API is
// preferred; the intro-skipper endpoint fills in when segments are missing.
// Returns nil (not an error) when no intervals are known.
func Fetch(ctx context.Context, client *jellyfin.Client, itemID string) (*Times, error) {
	times := &Times{}

	mediaSegments, err := client.MediaSegments(ctx, itemID)
	if err != nil {
		log.Debugf("media segments unavailable for %s: %v", itemID, err)
	}
	for _, segment := range mediaSegments {
		interval := Interval{
			Start: ticks.ToSeconds(segment.StartTicks),
			End:   ticks.ToSeconds(segment.EndTicks),
		}
		switch segment.Kind {
		case "Intro", "intro":
			times.Intro = interval
			times.HasIntro = true
		case "Outro", "outro", "Credits", "credits":
			times.Credits = interval
			times.HasCredits = true
		}
	}

	if !times.HasIntro {
		intro, err := client.IntroTimestamps(ctx, itemID)
		if err != nil {
			log.Debugf("intro timestamps unavailable for %s: %v", itemID, err)
		} else if intro != nil {
			times.Intro = Interval{
				Start: ticks.ToSeconds(intro.StartTicks),
				End:   ticks.ToSeconds(intro.EndTicks),
			}
			times.HasIntro = true
		}
	}

	if !times.HasIntro && !times.HasCredits {
		return nil, nil
	}
	return times, nil
}

// Seeker is the player surface a skipper drives.
type Seeker interface {
	Seek(seconds float64) error
}

// Chapterer is implemented by players that can render chapter markers.
type Chapterer interface {
	SetChapters(chapters []map[string]interface{}) error
}

// Skipper watches playback positions and jumps over known intervals.
type Skipper struct {
	times       *Times
	seeker      Seeker
	skipIntro   bool
	skipCredits bool
}

// NewSkipper creates a skipper. Either toggle can be off to leave that
// interval alone.
func NewSkipper(seeker Seeker, times *Times, skipIntro, skipCredits bool) *Skipper {
	return &Skipper{
		times:       times,
		seeker:      seeker,
		skipIntro:   skipIntro,
		skipCredits: skipCredits,
	}
}

// Check inspects the current position and seeks past an interval when inside
// one. Returns true if a skip was performed.
func (s *Skipper) Check(pos float64) (bool, error) {
	if s.times == nil {
		return false, nil
	}

	if s.skipIntro && s.times.HasIntro && inside(pos, s.times.Intro) {
		log.Infof("skipping intro: %.1fs -> %.1fs", pos, s.times.Intro.End)
		if err := s.seeker.Seek(s.times.Intro.End); err != nil {
			return false, err
		}
		return true, nil
	}

	if s.skipCredits && s.times.HasCredits && inside(pos, s.times.Credits) {
		log.Infof("skipping credits: %.1fs -> %.1fs", pos, s.times.Credits.End)
		if err := s.seeker.Seek(s.times.Credits.End); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// ApplyChapters renders the intervals as chapter markers when the player
// supports them, so the timeline shows where the skips are.
func (s *Skipper) ApplyChapters() error {
	if s.times == nil {
		return nil
	}
	chapterer, ok := s.seeker.(Chapterer)
	if !ok {
		return nil
	}

	chapters := []map[string]interface{}{
		{"title": "Main", "time": 0.0},
	}

	if s.times.HasIntro {
		chapters = append(chapters,
			map[string]interface{}{"title": "Intro", "time": s.times.Intro.Start},
			map[string]interface{}{"title": "Main", "time": s.times.Intro.End},
		)
	}
	if s.times.HasCredits {
		chapters = append(chapters,
			map[string]interface{}{"title": "Credits", "time": s.times.Credits.Start},
			map[string]interface{}{"title": "After Credits", "time": s.times.Credits.End},
		)
	}

	return chapterer.SetChapters(chapters)
}

func inside(pos float64, interval Interval) bool {
	return pos >= interval.Start && pos < interval.End
}
