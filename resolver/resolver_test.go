package resolver

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/source"
)

type fakeBackend struct {
	sources   []*source.MediaSource
	sessionID string
	err       error

	gotBitrate int64
}

func (f *fakeBackend) PlaybackInfo(_ context.Context, _, _ string, maxBitrate int64) (*jellyfin.PlaybackInfoResponse, error) {
	f.gotBitrate = maxBitrate
	if f.err != nil {
		return nil, f.err
	}
	return &jellyfin.PlaybackInfoResponse{
		MediaSources:  f.sources,
		PlaySessionID: f.sessionID,
	}, nil
}

func (f *fakeBackend) StreamURL(itemID string, src *source.MediaSource, method source.PlayMethod) string {
	if method == source.PlayMethodTranscode {
		return "https://server/" + src.TranscodingURL
	}
	return "https://server/stream/" + itemID + "/" + src.ID
}

func item() *source.MediaItem {
	return &source.MediaItem{ID: "item1", Name: "Some Movie", Kind: source.KindVideo}
}

func TestResolve(t *testing.T) {
	Convey("Given a server offering direct and transcoded sources", t, func() {
		backend := &fakeBackend{
			sessionID: "ps1",
			sources: []*source.MediaSource{
				{
					ID:                  "trans",
					SupportsTranscoding: true,
					TranscodingURL:      "master.m3u8",
				},
				{
					ID:                 "direct",
					Bitrate:            8_000_000,
					SupportsDirectPlay: true,
					Streams:            []source.MediaStream{{Type: source.StreamVideo, Height: 1080}},
				},
			},
		}
		r := New(backend, "user1", "original")

		Convey("Direct play wins over transcoding", func() {
			res, err := r.Resolve(context.Background(), item())

			So(err, ShouldBeNil)
			So(res.Source.ID, ShouldEqual, "direct")
			So(res.Method, ShouldEqual, source.PlayMethodDirectPlay)
			So(res.StreamURL, ShouldEqual, "https://server/stream/item1/direct")
			So(res.PlaySessionID, ShouldEqual, "ps1")
		})

		Convey("Among direct sources the highest bitrate wins", func() {
			backend.sources = append(backend.sources, &source.MediaSource{
				ID:                 "direct-hi",
				Bitrate:            12_000_000,
				SupportsDirectPlay: true,
				Streams:            []source.MediaStream{{Type: source.StreamVideo, Height: 1080}},
			})

			res, err := r.Resolve(context.Background(), item())

			So(err, ShouldBeNil)
			So(res.Source.ID, ShouldEqual, "direct-hi")
		})

		Convey("Selection is deterministic across repeated resolves", func() {
			first, err := r.Resolve(context.Background(), item())
			So(err, ShouldBeNil)

			second, err := r.Resolve(context.Background(), item())
			So(err, ShouldBeNil)
			So(second.Source.ID, ShouldEqual, first.Source.ID)
			So(second.Method, ShouldEqual, first.Method)
		})
	})

	Convey("Given a quality ceiling below the direct source", t, func() {
		backend := &fakeBackend{
			sources: []*source.MediaSource{
				{
					ID:                  "uhd",
					Bitrate:             40_000_000,
					SupportsDirectPlay:  true,
					SupportsTranscoding: true,
					TranscodingURL:      "master.m3u8",
					Streams:             []source.MediaStream{{Type: source.StreamVideo, Height: 2160}},
				},
			},
		}
		r := New(backend, "user1", "720p")

		Convey("The resolver falls back to transcoding", func() {
			res, err := r.Resolve(context.Background(), item())

			So(err, ShouldBeNil)
			So(res.Method, ShouldEqual, source.PlayMethodTranscode)
			So(res.StreamURL, ShouldEqual, "https://server/master.m3u8")
		})

		Convey("The bitrate ceiling matches the preset", func() {
			_, err := r.Resolve(context.Background(), item())

			So(err, ShouldBeNil)
			So(backend.gotBitrate, ShouldEqual, jellyfin.BitrateForHeight(720))
		})
	})

	Convey("Given a ceiling and only an over-cap source that cannot transcode", t, func() {
		backend := &fakeBackend{
			sources: []*source.MediaSource{
				{
					ID:                 "uhd-direct",
					Bitrate:            40_000_000,
					SupportsDirectPlay: true,
					Streams:            []source.MediaStream{{Type: source.StreamVideo, Height: 2160}},
				},
			},
		}
		r := New(backend, "user1", "720p")

		Convey("Direct play is still used rather than failing outright", func() {
			res, err := r.Resolve(context.Background(), item())

			So(err, ShouldBeNil)
			So(res.Source.ID, ShouldEqual, "uhd-direct")
			So(res.Method, ShouldEqual, source.PlayMethodDirectPlay)
		})
	})

	Convey("Given a server with nothing playable", t, func() {
		backend := &fakeBackend{
			sources: []*source.MediaSource{
				{ID: "broken", SupportsTranscoding: true},
			},
		}
		r := New(backend, "user1", "original")

		Convey("Resolution fails with the sentinel error", func() {
			_, err := r.Resolve(context.Background(), item())

			So(errors.Is(err, ErrNoPlayableSource), ShouldBeTrue)
		})
	})

	Convey("Given a backend error", t, func() {
		backend := &fakeBackend{err: errors.New("boom")}
		r := New(backend, "user1", "original")

		Convey("The error is wrapped with the item name", func() {
			_, err := r.Resolve(context.Background(), item())

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Some Movie")
		})
	})
}

func TestResolveLocal(t *testing.T) {
	Convey("Given a downloaded file", t, func() {
		r := New(nil, "user1", "original")

		Convey("It plays directly from disk without a server session", func() {
			res := r.ResolveLocal(item(), "/downloads/movie.mkv")

			So(res.Method, ShouldEqual, source.PlayMethodDirectPlay)
			So(res.StreamURL, ShouldEqual, "/downloads/movie.mkv")
			So(res.PlaySessionID, ShouldBeEmpty)
		})
	})
}
