// Package resolver picks the best playable media source for an item.
//
// Resolution asks the server which sources it offers, applies the configured
// quality ceiling, and prefers direct playback over server-side transcoding.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/source"
)

// ErrNoPlayableSource is returned when the server offers no source the client
// can play, directly or via transcoding.
var ErrNoPlayableSource = errors.New("no playable media source")

// Backend is the server surface resolution depends on.
type Backend interface {
	PlaybackInfo(ctx context.Context, itemID, userID string, maxBitrate int64) (*jellyfin.PlaybackInfoResponse, error)
	StreamURL(itemID string, src *source.MediaSource, method source.PlayMethod) string
}

// Resolution is the outcome of resolving an item: the chosen source, how it
// will be played, and the URL to hand the player.
type Resolution struct {
	Item          *source.MediaItem
	Source        *source.MediaSource
	Method        source.PlayMethod
	StreamURL     string
	PlaySessionID string
}

// Resolver resolves items against a server for a fixed user and quality preset.
type Resolver struct {
	backend Backend
	userID  string
	quality string
}

// New creates a resolver. Quality is one of "original", "auto", "1080p",
// "720p" or "480p"; unknown presets behave like "original".
func New(backend Backend, userID, quality string) *Resolver {
	return &Resolver{
		backend: backend,
		userID:  userID,
		quality: quality,
	}
}

// Resolve picks the best source for the item. Local files bypass the server
// entirely and play directly from disk.
func (r *Resolver) Resolve(ctx context.Context, item *source.MediaItem) (*Resolution, error) {
	maxHeight := jellyfin.QualityHeight(r.quality)
	maxBitrate := jellyfin.BitrateForHeight(maxHeight)

	info, err := r.backend.PlaybackInfo(ctx, item.ID, r.userID, maxBitrate)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", item.Name, err)
	}

	chosen := selectSource(info.MediaSources, maxHeight)
	if chosen == nil {
		return nil, fmt.Errorf("resolve %q: %w", item.Name, ErrNoPlayableSource)
	}

	method := source.MethodOf(chosen)
	if maxHeight > 0 && chosen.VideoHeight() > maxHeight && chosen.SupportsTranscoding && chosen.TranscodingURL != "" {
		// The only way to honor the ceiling is to let the server downscale.
		method = source.PlayMethodTranscode
	}

	log.Debugf("resolved %q to source %s via %s", item.Name, chosen.ID, method)

	return &Resolution{
		Item:          item,
		Source:        chosen,
		Method:        method,
		StreamURL:     r.backend.StreamURL(item.ID, chosen, method),
		PlaySessionID: info.PlaySessionID,
	}, nil
}

// ResolveLocal synthesizes a resolution for a file already on disk, keeping
// playback and reporting uniform for downloaded items.
func (r *Resolver) ResolveLocal(item *source.MediaItem, path string) *Resolution {
	src := &source.MediaSource{
		ID:                 "local-" + item.ID,
		SupportsDirectPlay: true,
		Path:               path,
	}

	return &Resolution{
		Item:      item,
		Source:    src,
		Method:    source.PlayMethodDirectPlay,
		StreamURL: path,
	}
}

// selectSource orders candidates by playability: direct-play first, then
// direct-stream, then transcoding, ties broken by highest bitrate. Selection
// is deterministic for a given source set.
func selectSource(sources []*source.MediaSource, maxHeight int) *source.MediaSource {
	if len(sources) == 0 {
		return nil
	}

	candidates := make([]*source.MediaSource, 0, len(sources))
	for _, src := range sources {
		if src.SupportsDirectPlay || src.SupportsDirectStream || (src.SupportsTranscoding && src.TranscodingURL != "") {
			candidates = append(candidates, src)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := rank(a, maxHeight), rank(b, maxHeight); ra != rb {
			return ra < rb
		}
		return a.Bitrate > b.Bitrate
	})
	return candidates[0]
}

// rank orders play methods; lower is better. Direct sources exceeding the
// height ceiling rank below everything that fits.
func rank(src *source.MediaSource, maxHeight int) int {
	overCap := maxHeight > 0 && src.VideoHeight() > maxHeight

	switch {
	case src.SupportsDirectPlay && !overCap:
		return 0
	case src.SupportsDirectStream && !overCap:
		return 1
	case src.SupportsTranscoding && src.TranscodingURL != "":
		return 2
	case src.SupportsDirectPlay:
		return 3
	default:
		return 4
	}
}
