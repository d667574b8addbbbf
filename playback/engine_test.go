package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jellysan-cli/jellysan/cast"
	"github.com/jellysan-cli/jellysan/queue"
	"github.com/jellysan-cli/jellysan/resolver"
	"github.com/jellysan-cli/jellysan/session"
	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/ticks"
)

type fakeResolver struct {
	mu    sync.Mutex
	gate  chan struct{}
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, item *source.MediaItem) (*resolver.Resolution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, item.ID)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &resolver.Resolution{
		Item:      item,
		Source:    &source.MediaSource{ID: "src-" + item.ID},
		Method:    source.PlayMethodDirectPlay,
		StreamURL: "https://server/stream/" + item.ID,
	}, nil
}

type fakeSurface struct {
	mu     sync.Mutex
	loaded []*session.PlaySession
	seeks  []int64
	paused bool
	stops  int
}

func (f *fakeSurface) Load(s *session.PlaySession, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, s)
	return nil
}

func (f *fakeSurface) Resume() error { f.mu.Lock(); defer f.mu.Unlock(); f.paused = false; return nil }
func (f *fakeSurface) Pause() error  { f.mu.Lock(); defer f.mu.Unlock(); f.paused = true; return nil }

func (f *fakeSurface) Seek(positionMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, positionMs)
	return nil
}

func (f *fakeSurface) Stop() error { f.mu.Lock(); defer f.mu.Unlock(); f.stops++; return nil }

func (f *fakeSurface) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loaded)
}

type reportCall struct {
	kind      string
	sessionID string
	ticks     int64
	paused    bool
}

type recordingReporter struct {
	mu    sync.Mutex
	calls []reportCall
}

func (r *recordingReporter) Start(s *session.PlaySession) {
	r.record(reportCall{kind: "start", sessionID: s.ID})
}

func (r *recordingReporter) Progress(s *session.PlaySession, positionTicks int64, paused bool) {
	r.record(reportCall{kind: "progress", sessionID: s.ID, ticks: positionTicks, paused: paused})
}

func (r *recordingReporter) Stop(s *session.PlaySession, positionTicks int64) {
	r.record(reportCall{kind: "stop", sessionID: s.ID, ticks: positionTicks})
}

func (r *recordingReporter) record(c reportCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recordingReporter) snapshot() []reportCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reportCall(nil), r.calls...)
}

func waitFor(condition func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

func testItem(id string) *source.MediaItem {
	return &source.MediaItem{ID: id, Name: "Item " + id, Kind: source.KindVideo, DurationTicks: 60 * ticks.PerSecond}
}

func newTestEngine(opts Options) (*Engine, *fakeResolver, *fakeSurface, *recordingReporter) {
	res := &fakeResolver{}
	surf := &fakeSurface{}
	rep := &recordingReporter{}

	opts.Resolver = res
	opts.Surface = surf
	opts.Reporter = rep
	return NewEngine(opts), res, surf, rep
}

func TestPlayItem(t *testing.T) {
	Convey("Given an idle engine", t, func() {
		e, _, surf, rep := newTestEngine(Options{})

		Convey("PlayItem resolves, starts a session and loads the surface", func() {
			e.PlayItem(context.Background(), testItem("a"))

			So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)

			sess, ok := e.Session()
			So(ok, ShouldBeTrue)
			So(sess.StreamURL, ShouldEqual, "https://server/stream/a")

			calls := rep.snapshot()
			So(calls, ShouldHaveLength, 1)
			So(calls[0].kind, ShouldEqual, "start")
		})

		Convey("Playing the same item twice yields distinct sessions", func() {
			e.PlayItem(context.Background(), testItem("a"))
			So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
			first, _ := e.Session()

			e.PlayItem(context.Background(), testItem("a"))
			So(waitFor(func() bool { return surf.loadCount() == 2 }), ShouldBeTrue)
			second, _ := e.Session()

			So(second.ID, ShouldNotEqual, first.ID)
		})

		Convey("A failed resolution moves the engine to the error state", func() {
			e2, res, _, _ := newTestEngine(Options{})
			res.err = errors.New("nothing playable")

			e2.PlayItem(context.Background(), testItem("a"))

			So(waitFor(func() bool { return e2.State() == StateError }), ShouldBeTrue)
			So(e2.Err(), ShouldNotBeNil)
			_, ok := e2.Session()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestRapidItemSwitch(t *testing.T) {
	Convey("Given a resolver that answers only when released", t, func() {
		e, res, surf, rep := newTestEngine(Options{})
		gate := make(chan struct{})
		res.gate = gate

		Convey("A newer PlayItem supersedes the unfinished one", func() {
			e.PlayItem(context.Background(), testItem("a"))
			e.PlayItem(context.Background(), testItem("b"))
			close(gate)

			So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)

			sess, ok := e.Session()
			So(ok, ShouldBeTrue)
			So(sess.Item.ID, ShouldEqual, "b")

			Convey("And the stale resolution never starts a session", func() {
				time.Sleep(50 * time.Millisecond)
				So(surf.loadCount(), ShouldEqual, 1)

				for _, c := range rep.snapshot() {
					So(c.sessionID, ShouldEqual, sess.ID)
				}
			})
		})
	})
}

func TestReportOrdering(t *testing.T) {
	Convey("Given a playing session with fast progress reports", t, func() {
		e, _, surf, rep := newTestEngine(Options{ReportInterval: 2 * time.Millisecond})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
		sess, _ := e.Session()

		e.HandleReady(60_000)
		e.HandleProgress(10_000)
		So(waitFor(func() bool { return len(rep.snapshot()) > 3 }), ShouldBeTrue)

		Convey("Stopping sends the stop report strictly last for that session", func() {
			e.Stop()
			time.Sleep(20 * time.Millisecond)

			calls := rep.snapshot()
			stopAt := -1
			for i, c := range calls {
				if c.kind == "stop" && c.sessionID == sess.ID {
					stopAt = i
				}
			}
			So(stopAt, ShouldBeGreaterThan, 0)
			So(stopAt, ShouldEqual, len(calls)-1)
			So(e.State(), ShouldEqual, StateIdle)
		})
	})
}

func progressCount(calls []reportCall) int {
	n := 0
	for _, c := range calls {
		if c.kind == "progress" {
			n++
		}
	}
	return n
}

func TestProgressGating(t *testing.T) {
	Convey("Given an engine with a fast report interval", t, func() {
		e, _, surf, rep := newTestEngine(Options{ReportInterval: 2 * time.Millisecond})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)

		Convey("Nothing is reported while the stream is still opening", func() {
			time.Sleep(50 * time.Millisecond)
			So(progressCount(rep.snapshot()), ShouldEqual, 0)

			Convey("And reports begin once playback starts", func() {
				e.HandleReady(60_000)
				So(waitFor(func() bool { return progressCount(rep.snapshot()) > 0 }), ShouldBeTrue)
			})
		})

		Convey("Buffering suspends progress reports until playback recovers", func() {
			e.HandleReady(60_000)
			So(waitFor(func() bool { return progressCount(rep.snapshot()) > 0 }), ShouldBeTrue)

			e.HandleBuffering(true)
			time.Sleep(20 * time.Millisecond)
			before := progressCount(rep.snapshot())
			time.Sleep(50 * time.Millisecond)
			So(progressCount(rep.snapshot()), ShouldEqual, before)

			e.HandleBuffering(false)
			So(waitFor(func() bool { return progressCount(rep.snapshot()) > before }), ShouldBeTrue)
		})

		Convey("A paused session keeps reporting", func() {
			e.HandleReady(60_000)
			e.TogglePlayPause()
			base := progressCount(rep.snapshot())

			So(waitFor(func() bool { return progressCount(rep.snapshot()) > base }), ShouldBeTrue)
		})
	})
}

type gatedReporter struct {
	recordingReporter
	startGate chan struct{}
}

func (r *gatedReporter) Start(s *session.PlaySession) {
	<-r.startGate
	r.recordingReporter.Start(s)
}

func TestStartReportPrecedesStop(t *testing.T) {
	Convey("Given a reporter whose start report is held back", t, func() {
		res := &fakeResolver{}
		surf := &fakeSurface{}
		rep := &gatedReporter{startGate: make(chan struct{})}
		e := NewEngine(Options{Resolver: res, Surface: surf, Reporter: rep})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { _, ok := e.Session(); return ok }), ShouldBeTrue)
		sess, _ := e.Session()

		Convey("A Stop racing the start report still lands after it", func() {
			done := make(chan struct{})
			go func() {
				e.Stop()
				close(done)
			}()

			time.Sleep(20 * time.Millisecond)
			close(rep.startGate)
			<-done

			startAt, stopAt := -1, -1
			for i, c := range rep.snapshot() {
				if c.sessionID != sess.ID {
					continue
				}
				switch c.kind {
				case "start":
					startAt = i
				case "stop":
					stopAt = i
				}
			}
			So(startAt, ShouldBeGreaterThanOrEqualTo, 0)
			So(stopAt, ShouldBeGreaterThan, startAt)
		})
	})
}

func TestSeek(t *testing.T) {
	Convey("Given a playing session of one minute", t, func() {
		e, _, surf, rep := newTestEngine(Options{})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
		e.HandleReady(60_000)
		e.HandleProgress(10_000)

		Convey("Seek clamps into the item duration", func() {
			e.Seek(90_000)

			So(surf.seeks, ShouldResemble, []int64{60_000})
			So(e.PositionMs(), ShouldEqual, int64(60_000))
		})

		Convey("Negative targets clamp to zero", func() {
			e.Seek(-5_000)

			So(surf.seeks, ShouldResemble, []int64{0})
		})

		Convey("A committed seek reports the new position", func() {
			e.Seek(30_000)

			calls := rep.snapshot()
			last := calls[len(calls)-1]
			So(last.kind, ShouldEqual, "progress")
			So(last.ticks, ShouldEqual, ticks.FromMilliseconds(30_000))
		})

		Convey("SeekPreview shadows the displayed position only", func() {
			e.SeekPreview(45_000)

			So(e.PositionMs(), ShouldEqual, int64(45_000))
			So(surf.seeks, ShouldBeEmpty)

			Convey("Cancel reverts to the surface position", func() {
				e.SeekCancel()
				So(e.PositionMs(), ShouldEqual, int64(10_000))
			})

			Convey("Commit performs the real seek", func() {
				e.SeekCommit()
				So(surf.seeks, ShouldResemble, []int64{45_000})
			})
		})
	})
}

func TestPauseResume(t *testing.T) {
	Convey("Given a playing session", t, func() {
		e, _, surf, rep := newTestEngine(Options{})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
		e.HandleReady(60_000)

		Convey("Toggling pauses and reports the pause immediately", func() {
			e.TogglePlayPause()

			So(e.State(), ShouldEqual, StatePaused)
			calls := rep.snapshot()
			last := calls[len(calls)-1]
			So(last.kind, ShouldEqual, "progress")
			So(last.paused, ShouldBeTrue)

			Convey("Toggling again resumes", func() {
				e.TogglePlayPause()
				So(e.State(), ShouldEqual, StatePlaying)
			})
		})

		Convey("Buffering overlays the state and restores it after", func() {
			e.HandleBuffering(true)
			So(e.State(), ShouldEqual, StateBuffering)

			e.HandleBuffering(false)
			So(e.State(), ShouldEqual, StatePlaying)
		})
	})
}

func TestQueueAdvance(t *testing.T) {
	Convey("Given a two-item queue with autoplay", t, func() {
		q := queue.New()
		q.Set([]*source.MediaItem{testItem("a"), testItem("b")}, 0)
		e, _, surf, rep := newTestEngine(Options{Queue: q, AutoplayNext: true})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
		e.HandleReady(60_000)

		Convey("HandleEnded stops at full duration and plays the next item", func() {
			e.HandleEnded(context.Background())

			So(waitFor(func() bool { return surf.loadCount() == 2 }), ShouldBeTrue)
			sess, ok := e.Session()
			So(ok, ShouldBeTrue)
			So(sess.Item.ID, ShouldEqual, "b")

			var stop reportCall
			for _, c := range rep.snapshot() {
				if c.kind == "stop" {
					stop = c
				}
			}
			So(stop.ticks, ShouldEqual, ticks.FromMilliseconds(60_000))
		})

		Convey("HandleEnded on the last item ends the engine", func() {
			q.SkipTo(1)
			e.HandleEnded(context.Background())

			So(waitFor(func() bool { return e.State() == StateEnded }), ShouldBeTrue)
		})
	})
}

func TestCastMirroring(t *testing.T) {
	Convey("Given a connected cast sink", t, func() {
		sink := &cast.FakeSink{ConnectedState: true}
		e, _, surf, rep := newTestEngine(Options{Cast: sink})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
		e.HandleReady(60_000)

		Convey("Loading mirrors to the sink", func() {
			So(sink.Loaded, ShouldNotBeNil)
			So(sink.Loaded.ID, ShouldEqual, "a")
			So(sink.Playing, ShouldBeTrue)
		})

		Convey("Transport commands mirror through", func() {
			e.TogglePlayPause()
			So(sink.Playing, ShouldBeFalse)

			e.Seek(30_000)
			So(sink.PositionMs, ShouldEqual, int64(30_000))
		})

		Convey("Stopping folds the sink position into the stop report", func() {
			sink.PositionMs = 42_000
			e.Stop()

			calls := rep.snapshot()
			last := calls[len(calls)-1]
			So(last.kind, ShouldEqual, "stop")
			So(last.ticks, ShouldEqual, ticks.FromMilliseconds(42_000))
		})
	})

	Convey("Given a disconnected cast sink", t, func() {
		sink := &cast.FakeSink{ConnectedState: false}
		e, _, surf, _ := newTestEngine(Options{Cast: sink})

		e.PlayItem(context.Background(), testItem("a"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)

		Convey("Nothing is mirrored", func() {
			So(sink.Loaded, ShouldBeNil)
			So(sink.Commands, ShouldBeEmpty)
		})
	})
}

func TestSkipToPrevious(t *testing.T) {
	Convey("Given a playing second queue item", t, func() {
		q := queue.New()
		q.Set([]*source.MediaItem{testItem("a"), testItem("b")}, 1)
		e, _, surf, _ := newTestEngine(Options{Queue: q})

		e.PlayItem(context.Background(), testItem("b"))
		So(waitFor(func() bool { return surf.loadCount() == 1 }), ShouldBeTrue)
		e.HandleReady(60_000)

		Convey("Deep into the item it restarts from the beginning", func() {
			e.HandleProgress(30_000)
			e.SkipToPrevious(context.Background())

			So(surf.seeks, ShouldResemble, []int64{0})
			So(surf.loadCount(), ShouldEqual, 1)
		})

		Convey("Near the start it moves back in the queue", func() {
			e.HandleProgress(1_000)
			e.SkipToPrevious(context.Background())

			So(waitFor(func() bool { return surf.loadCount() == 2 }), ShouldBeTrue)
			sess, _ := e.Session()
			So(sess.Item.ID, ShouldEqual, "a")
		})
	})
}
