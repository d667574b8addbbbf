package source

import (
	"testing"

	"github.com/jellysan-cli/jellysan/ticks"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/samber/mo"
)

func TestMediaItem(t *testing.T) {
	Convey("MediaItem", t, func() {
		item := MediaItem{
			ID:            "abc",
			Name:          "Pilot",
			Kind:          KindVideo,
			DurationTicks: ticks.FromMilliseconds(100_000),
			SeriesName:    "Some Show",
		}

		Convey("String includes the series name", func() {
			So(item.String(), ShouldEqual, "Some Show - Pilot")
		})

		Convey("DurationMs converts from ticks", func() {
			So(item.DurationMs(), ShouldEqual, 100_000)
		})

		Convey("ResumeMs is absent without server data", func() {
			So(item.ResumeMs().IsAbsent(), ShouldBeTrue)
		})

		Convey("ResumeMs converts when present", func() {
			item.ResumeTicks = mo.Some(ticks.FromMilliseconds(5000))
			So(item.ResumeMs().MustGet(), ShouldEqual, 5000)
		})
	})
}

func TestMediaSource(t *testing.T) {
	Convey("MediaSource", t, func() {
		src := MediaSource{
			ID:        "src-1",
			Container: "mkv",
			Streams: []MediaStream{
				{Index: 0, Type: StreamVideo, Codec: "h264", Height: 1080},
				{Index: 1, Type: StreamAudio, Codec: "aac", Language: "eng"},
				{Index: 2, Type: StreamSubtitle, Codec: "srt", Language: "eng"},
				{Index: 3, Type: StreamSubtitle, Codec: "srt", Language: "jpn"},
			},
		}

		Convey("VideoHeight picks the video stream", func() {
			So(src.VideoHeight(), ShouldEqual, 1080)
		})

		Convey("StreamsOf filters by type", func() {
			So(len(src.StreamsOf(StreamSubtitle)), ShouldEqual, 2)
			So(len(src.StreamsOf(StreamAudio)), ShouldEqual, 1)
		})
	})
}

func TestMethodOf(t *testing.T) {
	Convey("MethodOf", t, func() {
		Convey("Direct play wins over everything", func() {
			So(MethodOf(&MediaSource{SupportsDirectPlay: true, SupportsDirectStream: true}), ShouldEqual, PlayMethodDirectPlay)
		})
		Convey("Direct stream wins over transcode", func() {
			So(MethodOf(&MediaSource{SupportsDirectStream: true, SupportsTranscoding: true}), ShouldEqual, PlayMethodDirectStream)
		})
		Convey("Transcode is the fallback", func() {
			So(MethodOf(&MediaSource{SupportsTranscoding: true}), ShouldEqual, PlayMethodTranscode)
		})
	})
}
