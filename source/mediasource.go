// Package source defines the domain models for playable media items and their streamable variants.
package source

// StreamType classifies an embedded stream inside a media source.
type StreamType string

const (
	StreamVideo    StreamType = "Video"
	StreamAudio    StreamType = "Audio"
	StreamSubtitle StreamType = "Subtitle"
)

// MediaStream describes a single embedded audio/video/subtitle stream.
type MediaStream struct {
	Index        int        `json:"index"`
	Type         StreamType `json:"type"`
	Codec        string     `json:"codec"`
	Language     string     `json:"language,omitempty"`
	DisplayTitle string     `json:"display_title,omitempty"`
	IsDefault    bool       `json:"is_default,omitempty"`
	IsExternal   bool       `json:"is_external,omitempty"`
	Height       int        `json:"height,omitempty"`
	Width        int        `json:"width,omitempty"`
}

// MediaSource is one streamable variant of a MediaItem. It is selected once per
// playback session and immutable thereafter; a quality change produces a new
// session, never a mutation.
type MediaSource struct {
	// Server-assigned source id.
	ID string `json:"id"`
	// Container format (e.g. "mkv", "mp4").
	Container string `json:"container"`
	// Overall bitrate in bits per second.
	Bitrate int `json:"bitrate"`
	// Embedded streams.
	Streams []MediaStream `json:"streams,omitempty"`

	// Server-declared playback capabilities.
	SupportsDirectPlay   bool `json:"supports_direct_play"`
	SupportsDirectStream bool `json:"supports_direct_stream"`
	SupportsTranscoding  bool `json:"supports_transcoding"`

	// Relative transcoding URL supplied by the server, when transcoding applies.
	TranscodingURL string `json:"transcoding_url,omitempty"`
	// Local filesystem path for offline sources.
	Path string `json:"path,omitempty"`
}

// String returns the container and source id for display.
func (s *MediaSource) String() string {
	if s.Container != "" {
		return s.Container + " (" + s.ID + ")"
	}
	return s.ID
}

// VideoHeight returns the height of the primary video stream, or 0 for pure audio sources.
func (s *MediaSource) VideoHeight() int {
	for _, stream := range s.Streams {
		if stream.Type == StreamVideo {
			return stream.Height
		}
	}
	return 0
}

// StreamsOf returns all embedded streams of the given type, preserving index order.
func (s *MediaSource) StreamsOf(t StreamType) []MediaStream {
	var out []MediaStream
	for _, stream := range s.Streams {
		if stream.Type == t {
			out = append(out, stream)
		}
	}
	return out
}
