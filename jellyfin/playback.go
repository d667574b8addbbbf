package jellyfin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/ticks"
)

// DefaultMaxBitrate is the streaming bitrate ceiling sent with playback-info
// requests when no per-session cap is configured.
const DefaultMaxBitrate int64 = 120_000_000

// PlaybackInfoResponse carries the media sources the server offers for an item
// along with the server-assigned play session id.
type PlaybackInfoResponse struct {
	MediaSources  []*source.MediaSource
	PlaySessionID string
}

// deviceProfile describes what this client can play back directly. Anything
// outside of it the server answers with a transcoding source.
func deviceProfile() map[string]any {
	return map[string]any{
		"MaxStreamingBitrate": DefaultMaxBitrate,
		"DirectPlayProfiles": []map[string]any{
			{"Container": "mp4,mkv,webm,mov,avi", "Type": "Video"},
			{"Container": "mp3,flac,aac,ogg,opus,wav,m4a,m4b", "Type": "Audio"},
		},
		"TranscodingProfiles": []map[string]any{
			{
				"Container":  "ts",
				"Type":       "Video",
				"VideoCodec": "h264",
				"AudioCodec": "aac",
				"Protocol":   "hls",
			},
			{
				"Container":  "mp3",
				"Type":       "Audio",
				"AudioCodec": "mp3",
				"Protocol":   "http",
			},
		},
		"SubtitleProfiles": []map[string]any{
			{"Format": "srt", "Method": "External"},
			{"Format": "ass", "Method": "External"},
			{"Format": "vtt", "Method": "External"},
		},
	}
}

// PlaybackInfo asks the server which media sources are available for an item
// under the given bitrate ceiling.
func (c *Client) PlaybackInfo(ctx context.Context, itemID, userID string, maxBitrate int64) (*PlaybackInfoResponse, error) {
	if maxBitrate <= 0 {
		maxBitrate = DefaultMaxBitrate
	}

	var resp struct {
		MediaSources  []sourceDTO `json:"MediaSources"`
		PlaySessionID string      `json:"PlaySessionId"`
	}

	body := map[string]any{
		"UserId":              userID,
		"MaxStreamingBitrate": maxBitrate,
		"AutoOpenLiveStream":  true,
		"DeviceProfile":       deviceProfile(),
	}

	err := c.post(ctx, "/Items/"+url.PathEscape(itemID)+"/PlaybackInfo", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("playback info for %s: %w", itemID, err)
	}

	out := &PlaybackInfoResponse{PlaySessionID: resp.PlaySessionID}
	for _, dto := range resp.MediaSources {
		out.MediaSources = append(out.MediaSources, dto.toSource())
	}
	return out, nil
}

// StreamURL builds the URL the player should open for the selected source.
// Transcoded sources use the server-provided transcoding URL, everything else
// streams the original container statically.
func (c *Client) StreamURL(itemID string, src *source.MediaSource, method source.PlayMethod) string {
	if method == source.PlayMethodTranscode && src.TranscodingURL != "" {
		return c.baseURL + src.TranscodingURL
	}

	query := url.Values{}
	query.Set("static", "true")
	query.Set("mediaSourceId", src.ID)
	query.Set("api_key", c.token)
	query.Set("deviceId", c.deviceID)

	container := src.Container
	if container == "" {
		container = "mp4"
	}
	return fmt.Sprintf("%s/Videos/%s/stream.%s?%s", c.baseURL, url.PathEscape(itemID), container, query.Encode())
}

// reportBody is the shared payload of the three session report endpoints.
type reportBody struct {
	ItemID              string `json:"ItemId"`
	MediaSourceID       string `json:"MediaSourceId"`
	PlaySessionID       string `json:"PlaySessionId"`
	PositionTicks       int64  `json:"PositionTicks"`
	IsPaused            bool   `json:"IsPaused"`
	PlayMethod          string `json:"PlayMethod"`
	CanSeek             bool   `json:"CanSeek"`
	AudioStreamIndex    *int   `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int   `json:"SubtitleStreamIndex,omitempty"`
}

// PlaybackReport describes a single session report.
type PlaybackReport struct {
	ItemID              string
	MediaSourceID       string
	PlaySessionID       string
	PositionTicks       int64
	IsPaused            bool
	PlayMethod          source.PlayMethod
	AudioStreamIndex    *int
	SubtitleStreamIndex *int
}

func (r PlaybackReport) body() reportBody {
	return reportBody{
		ItemID:              r.ItemID,
		MediaSourceID:       r.MediaSourceID,
		PlaySessionID:       r.PlaySessionID,
		PositionTicks:       r.PositionTicks,
		IsPaused:            r.IsPaused,
		PlayMethod:          string(r.PlayMethod),
		CanSeek:             true,
		AudioStreamIndex:    r.AudioStreamIndex,
		SubtitleStreamIndex: r.SubtitleStreamIndex,
	}
}

// ReportStart tells the server a playback session has begun.
func (c *Client) ReportStart(ctx context.Context, report PlaybackReport) error {
	return c.post(ctx, "/Sessions/Playing", report.body(), nil)
}

// ReportProgress updates the server with the current playback position.
func (c *Client) ReportProgress(ctx context.Context, report PlaybackReport) error {
	return c.post(ctx, "/Sessions/Playing/Progress", report.body(), nil)
}

// ReportStopped tells the server the session has ended at the final position.
func (c *Client) ReportStopped(ctx context.Context, report PlaybackReport) error {
	return c.post(ctx, "/Sessions/Playing/Stopped", report.body(), nil)
}

// MediaSegment is an intro or credits interval of an item, in ticks.
type MediaSegment struct {
	Kind       string
	StartTicks int64
	EndTicks   int64
}

// IntroTimestamps fetches the detected intro interval for an episode, if the
// server has the intro-skipper plugin installed. A nil segment with no error
// means the server knows of no intro.
func (c *Client) IntroTimestamps(ctx context.Context, itemID string) (*MediaSegment, error) {
	var resp struct {
		Valid      bool    `json:"Valid"`
		IntroStart float64 `json:"IntroStart"`
		IntroEnd   float64 `json:"IntroEnd"`
	}

	err := c.get(ctx, "/Episode/"+url.PathEscape(itemID)+"/IntroTimestamps", nil, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, nil
	}

	return &MediaSegment{
		Kind:       "intro",
		StartTicks: int64(resp.IntroStart * float64(ticks.PerSecond)),
		EndTicks:   int64(resp.IntroEnd * float64(ticks.PerSecond)),
	}, nil
}

// MediaSegments fetches all server-known segments (intro, outro) of an item
// via the media segments API. Servers without the feature return an empty set.
func (c *Client) MediaSegments(ctx context.Context, itemID string) ([]MediaSegment, error) {
	var resp struct {
		Items []struct {
			Type       string `json:"Type"`
			StartTicks int64  `json:"StartTicks"`
			EndTicks   int64  `json:"EndTicks"`
		} `json:"Items"`
	}

	err := c.get(ctx, "/MediaSegments/"+url.PathEscape(itemID), nil, &resp)
	if err != nil {
		return nil, err
	}

	segments := make([]MediaSegment, 0, len(resp.Items))
	for _, item := range resp.Items {
		segments = append(segments, MediaSegment{
			Kind:       item.Type,
			StartTicks: item.StartTicks,
			EndTicks:   item.EndTicks,
		})
	}
	return segments, nil
}

// MarkPlayed flags an item as fully watched for the user.
func (c *Client) MarkPlayed(ctx context.Context, userID, itemID string) error {
	return c.post(ctx, "/Users/"+url.PathEscape(userID)+"/PlayedItems/"+url.PathEscape(itemID), nil, nil)
}

// quality caps expressed as maximum video heights.
var qualityHeights = map[string]int{
	"1080p": 1080,
	"720p":  720,
	"480p":  480,
}

// QualityHeight translates a quality preset name into a maximum video height.
// Zero means unconstrained.
func QualityHeight(preset string) int {
	return qualityHeights[preset]
}

// BitrateForHeight returns a reasonable streaming bitrate ceiling for a given
// maximum video height, used when a quality preset constrains transcoding.
func BitrateForHeight(height int) int64 {
	switch {
	case height <= 0:
		return DefaultMaxBitrate
	case height <= 480:
		return 1_500_000
	case height <= 720:
		return 4_000_000
	case height <= 1080:
		return 8_000_000
	default:
		return DefaultMaxBitrate
	}
}
