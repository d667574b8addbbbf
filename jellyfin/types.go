package jellyfin

import (
	"strings"

	"github.com/samber/mo"

	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/ticks"
)

// itemDTO mirrors the fields of a server library item we consume.
type itemDTO struct {
	ID                string `json:"Id"`
	Name              string `json:"Name"`
	Type              string `json:"Type"`
	MediaType         string `json:"MediaType"`
	RunTimeTicks      int64  `json:"RunTimeTicks"`
	SeriesID          string `json:"SeriesId"`
	SeriesName        string `json:"SeriesName"`
	IndexNumber       int    `json:"IndexNumber"`
	ParentIndexNumber int    `json:"ParentIndexNumber"`
	UserData          *struct {
		PlaybackPositionTicks int64 `json:"PlaybackPositionTicks"`
	} `json:"UserData"`
}

// itemsDTO is the envelope the /Items endpoints wrap results in.
type itemsDTO struct {
	Items            []itemDTO `json:"Items"`
	TotalRecordCount int       `json:"TotalRecordCount"`
}

// streamDTO mirrors a MediaStream entry of a media source.
type streamDTO struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type"`
	Codec        string `json:"Codec"`
	Language     string `json:"Language"`
	DisplayTitle string `json:"DisplayTitle"`
	IsDefault    bool   `json:"IsDefault"`
	IsExternal   bool   `json:"IsExternal"`
	Height       int    `json:"Height"`
	Width        int    `json:"Width"`
}

// sourceDTO mirrors a MediaSourceInfo entry of a PlaybackInfo response.
type sourceDTO struct {
	ID                   string      `json:"Id"`
	Container            string      `json:"Container"`
	Bitrate              int64       `json:"Bitrate"`
	MediaStreams         []streamDTO `json:"MediaStreams"`
	SupportsDirectPlay   bool        `json:"SupportsDirectPlay"`
	SupportsDirectStream bool        `json:"SupportsDirectStream"`
	SupportsTranscoding  bool        `json:"SupportsTranscoding"`
	TranscodingURL       string      `json:"TranscodingUrl"`
	Path                 string      `json:"Path"`
}

func (i itemDTO) toItem() *source.MediaItem {
	item := &source.MediaItem{
		ID:                i.ID,
		Name:              i.Name,
		Kind:              kindOf(i),
		DurationTicks:     i.RunTimeTicks,
		ResumeTicks:       mo.None[int64](),
		SeriesID:          i.SeriesID,
		SeriesName:        i.SeriesName,
		IndexNumber:       i.IndexNumber,
		ParentIndexNumber: i.ParentIndexNumber,
	}

	if i.UserData != nil && i.UserData.PlaybackPositionTicks > ticks.PerSecond {
		item.ResumeTicks = mo.Some(i.UserData.PlaybackPositionTicks)
	}
	return item
}

func kindOf(i itemDTO) source.Kind {
	switch {
	case i.Type == "AudioBook":
		return source.KindAudiobook
	case strings.EqualFold(i.MediaType, "Audio"):
		return source.KindAudio
	default:
		return source.KindVideo
	}
}

func (s sourceDTO) toSource() *source.MediaSource {
	streams := make([]source.MediaStream, len(s.MediaStreams))
	for j, st := range s.MediaStreams {
		streams[j] = source.MediaStream{
			Index:        st.Index,
			Type:         source.StreamType(st.Type),
			Codec:        st.Codec,
			Language:     st.Language,
			DisplayTitle: st.DisplayTitle,
			IsDefault:    st.IsDefault,
			IsExternal:   st.IsExternal,
			Height:       st.Height,
			Width:        st.Width,
		}
	}

	return &source.MediaSource{
		ID:                   s.ID,
		Container:            s.Container,
		Bitrate:              int(s.Bitrate),
		Streams:              streams,
		SupportsDirectPlay:   s.SupportsDirectPlay,
		SupportsDirectStream: s.SupportsDirectStream,
		SupportsTranscoding:  s.SupportsTranscoding,
		TranscodingURL:       s.TranscodingURL,
		Path:                 s.Path,
	}
}
