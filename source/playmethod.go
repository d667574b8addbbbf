package source

// PlayMethod is the server-side classification of how much transformation a
// source requires before the device can render it. It is derived from the
// chosen source's capability flags, never guessed from bitrate, and affects
// nothing beyond display and session report analytics.
type PlayMethod string

const (
	PlayMethodDirectPlay   PlayMethod = "DirectPlay"
	PlayMethodDirectStream PlayMethod = "DirectStream"
	PlayMethodTranscode    PlayMethod = "Transcode"
)

// MethodOf classifies the play method of a media source.
func MethodOf(s *MediaSource) PlayMethod {
	switch {
	case s.SupportsDirectPlay:
		return PlayMethodDirectPlay
	case s.SupportsDirectStream:
		return PlayMethodDirectStream
	default:
		return PlayMethodTranscode
	}
}
