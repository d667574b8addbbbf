// Package cast abstracts a remote playback target such as a TV or speaker
// group. When a sink is connected, the engine mirrors its transport commands
// to it; session reporting stays with the engine.
package cast

import "github.com/jellysan-cli/jellysan/source"

// Sink is a remote playback target.
type Sink interface {
	// Connected reports whether the sink is reachable. Mirroring is
	// skipped while disconnected.
	Connected() bool

	// LoadMedia starts the item on the sink from the given position.
	LoadMedia(item *source.MediaItem, streamURL string, positionMs int64) error

	Play() error
	Pause() error
	Seek(positionMs int64) error

	// Stop ends remote playback and returns the last known position, so
	// the engine can fold it back into its reports.
	Stop() (lastPositionMs int64, err error)
}
