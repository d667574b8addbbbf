// Package player defines the abstraction over media playback backends.
// The primary implementation drives mpv over its JSON-IPC interface.
package player

// Player encapsulates the capabilities the engine needs from a playback
// backend.
type Player interface {
	// Play starts playback of the given URL. startSeconds positions the
	// stream before the first frame renders; zero starts from the top.
	Play(url string, title string, startSeconds float64, headers map[string]string) error

	// SetPause sets the suspension state explicitly.
	SetPause(paused bool) error

	// GetTimePos retrieves the current playback position in seconds.
	GetTimePos() (float64, error)

	// GetDuration retrieves the length of the active media in seconds.
	GetDuration() (float64, error)

	// GetPausedStatus retrieves the current suspension state.
	GetPausedStatus() (bool, error)

	// Seek moves playback to an absolute position in seconds.
	Seek(seconds float64) error

	// SelectAudio and SelectSubtitle switch the active tracks by stream
	// index. A negative subtitle index disables subtitles.
	SelectAudio(index int) error
	SelectSubtitle(index int) error

	// GetVolume and SetVolume work on the player volume, 0 to 1.
	GetVolume() (float64, error)
	SetVolume(value float64) error

	// IsRunning reports whether the backend responds to commands.
	IsRunning() bool

	// Close terminates the backend and releases its resources.
	Close() error

	// Socket retrieves the IPC channel identifier.
	Socket() string

	// Wait returns a channel closed when the backend process exits.
	Wait() <-chan struct{}
}
