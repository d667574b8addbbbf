package gesture

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeSink struct {
	volume     float64
	brightness float64
	durationMs int64

	previews    []int64
	commits     int
	cancels     int
	dismissed   int
	springBacks int
	progress    []float64
}

func (f *fakeSink) Volume() float64               { return f.volume }
func (f *fakeSink) SetVolume(v float64)           { f.volume = v }
func (f *fakeSink) Brightness() float64           { return f.brightness }
func (f *fakeSink) SetBrightness(v float64)       { f.brightness = v }
func (f *fakeSink) DurationMs() int64             { return f.durationMs }
func (f *fakeSink) SeekPreview(positionMs int64)  { f.previews = append(f.previews, positionMs) }
func (f *fakeSink) SeekCommit()                   { f.commits++ }
func (f *fakeSink) SeekCancel()                   { f.cancels++ }
func (f *fakeSink) DismissProgress(frac float64)  { f.progress = append(f.progress, frac) }
func (f *fakeSink) Dismiss()                      { f.dismissed++ }
func (f *fakeSink) SpringBack()                   { f.springBacks++ }

func newRecognizer(sink *fakeSink) *Recognizer {
	return NewRecognizer(DefaultConfig(400, 800), sink)
}

func at(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func TestArbitration(t *testing.T) {
	Convey("Given a 400x800 surface", t, func() {
		sink := &fakeSink{volume: 0.5, brightness: 0.5, durationMs: 60_000}
		r := newRecognizer(sink)

		Convey("A touch on the left edge claims volume", func() {
			r.Handle(Touch{Phase: Began, X: 30, Y: 400, At: at(0)})
			So(r.Active(), ShouldEqual, KindVolume)
		})

		Convey("A touch on the right edge claims brightness", func() {
			r.Handle(Touch{Phase: Began, X: 380, Y: 400, At: at(0)})
			So(r.Active(), ShouldEqual, KindBrightness)
		})

		Convey("A touch in the bottom track claims seeking", func() {
			r.Handle(Touch{Phase: Began, X: 200, Y: 760, At: at(0)})
			So(r.Active(), ShouldEqual, KindSeek)
		})

		Convey("An edge touch near the bottom corner still claims its edge", func() {
			r.Handle(Touch{Phase: Began, X: 30, Y: 780, At: at(0)})
			So(r.Active(), ShouldEqual, KindVolume)
		})

		Convey("A center touch claims dismissal", func() {
			r.Handle(Touch{Phase: Began, X: 200, Y: 400, At: at(0)})
			So(r.Active(), ShouldEqual, KindDismiss)
		})

		Convey("Inverted edges swap the ambient assignments", func() {
			cfg := DefaultConfig(400, 800)
			cfg.InvertEdges = true
			inverted := NewRecognizer(cfg, sink)

			inverted.Handle(Touch{Phase: Began, X: 30, Y: 400, At: at(0)})
			So(inverted.Active(), ShouldEqual, KindBrightness)
		})

		Convey("A second began during an active gesture is ignored", func() {
			r.Handle(Touch{Phase: Began, X: 30, Y: 400, At: at(0)})
			r.Handle(Touch{Phase: Began, X: 380, Y: 400, At: at(10)})

			So(r.Active(), ShouldEqual, KindVolume)
		})
	})
}

func TestSeekGesture(t *testing.T) {
	Convey("Given a one-minute item", t, func() {
		sink := &fakeSink{durationMs: 60_000}
		r := newRecognizer(sink)

		Convey("A scrub previews along the way and commits exactly once", func() {
			r.Handle(Touch{Phase: Began, X: 100, Y: 760, At: at(0)})
			r.Handle(Touch{Phase: Moved, X: 200, Y: 760, At: at(50)})
			r.Handle(Touch{Phase: Moved, X: 300, Y: 760, At: at(100)})
			r.Handle(Touch{Phase: Ended, X: 300, Y: 760, At: at(150)})

			So(sink.commits, ShouldEqual, 1)
			So(sink.cancels, ShouldEqual, 0)
			So(len(sink.previews), ShouldBeGreaterThanOrEqualTo, 3)
			So(sink.previews[len(sink.previews)-1], ShouldEqual, int64(45_000))

			Convey("And samples after the end are ignored", func() {
				r.Handle(Touch{Phase: Moved, X: 350, Y: 760, At: at(200)})
				r.Handle(Touch{Phase: Ended, X: 350, Y: 760, At: at(250)})

				So(sink.commits, ShouldEqual, 1)
			})
		})

		Convey("A cancelled scrub reverts instead of committing", func() {
			r.Handle(Touch{Phase: Began, X: 100, Y: 760, At: at(0)})
			r.Handle(Touch{Phase: Moved, X: 200, Y: 760, At: at(50)})
			r.Handle(Touch{Phase: Cancelled})

			So(sink.commits, ShouldEqual, 0)
			So(sink.cancels, ShouldEqual, 1)
		})

		Convey("Preview positions clamp to the track", func() {
			r.Handle(Touch{Phase: Began, X: 300, Y: 760, At: at(0)})
			r.Handle(Touch{Phase: Moved, X: 500, Y: 760, At: at(50)})

			So(sink.previews[len(sink.previews)-1], ShouldEqual, int64(60_000))
		})
	})
}

func TestAmbientGesture(t *testing.T) {
	Convey("Given a volume drag on the left edge", t, func() {
		sink := &fakeSink{volume: 0.5, durationMs: 60_000}
		r := newRecognizer(sink)

		r.Handle(Touch{Phase: Began, X: 30, Y: 600, At: at(0)})

		Convey("Dragging up raises the volume by travel times sensitivity", func() {
			r.Handle(Touch{Phase: Moved, X: 30, Y: 500, At: at(200)})

			So(sink.volume, ShouldAlmostEqual, 0.8, 0.0001)

			Convey("And it never seeks or dismisses", func() {
				r.Handle(Touch{Phase: Ended, X: 30, Y: 500, At: at(250)})

				So(sink.previews, ShouldBeEmpty)
				So(sink.commits, ShouldEqual, 0)
				So(sink.dismissed, ShouldEqual, 0)
				So(sink.springBacks, ShouldEqual, 0)
			})
		})

		Convey("Movement inside the hold delay leaves the value untouched", func() {
			r.Handle(Touch{Phase: Moved, X: 30, Y: 500, At: at(50)})

			So(sink.volume, ShouldEqual, 0.5)

			Convey("A brush that ends inside the delay changes nothing", func() {
				r.Handle(Touch{Phase: Ended, X: 30, Y: 500, At: at(100)})

				So(sink.volume, ShouldEqual, 0.5)
				So(r.Active(), ShouldEqual, KindNone)
			})

			Convey("Once the hold elapses the full travel applies", func() {
				r.Handle(Touch{Phase: Moved, X: 30, Y: 500, At: at(200)})

				So(sink.volume, ShouldAlmostEqual, 0.8, 0.0001)
			})
		})

		Convey("The value clamps to the unit range", func() {
			r.Handle(Touch{Phase: Moved, X: 30, Y: 0, At: at(200)})
			So(sink.volume, ShouldEqual, 1.0)

			r.Handle(Touch{Phase: Moved, X: 30, Y: 799, At: at(300)})
			So(sink.volume, ShouldAlmostEqual, 0, 0.01)
		})

		Convey("Cancellation restores the starting value", func() {
			r.Handle(Touch{Phase: Moved, X: 30, Y: 400, At: at(200)})
			r.Handle(Touch{Phase: Cancelled})

			So(sink.volume, ShouldEqual, 0.5)
		})
	})
}

func TestDismissGesture(t *testing.T) {
	Convey("Given a downward drag from the center", t, func() {
		sink := &fakeSink{durationMs: 60_000}
		r := newRecognizer(sink)

		r.Handle(Touch{Phase: Began, X: 200, Y: 300, At: at(0)})

		Convey("Crossing the distance threshold dismisses", func() {
			r.Handle(Touch{Phase: Moved, X: 200, Y: 360, At: at(100)})
			r.Handle(Touch{Phase: Ended, X: 200, Y: 440, At: at(200)})

			So(sink.dismissed, ShouldEqual, 1)
			So(sink.springBacks, ShouldEqual, 0)
		})

		Convey("A fast short fling dismisses on velocity", func() {
			r.Handle(Touch{Phase: Ended, X: 200, Y: 390, At: at(50)})

			So(sink.dismissed, ShouldEqual, 1)
		})

		Convey("A slow short drag springs back", func() {
			r.Handle(Touch{Phase: Moved, X: 200, Y: 340, At: at(200)})
			r.Handle(Touch{Phase: Ended, X: 200, Y: 350, At: at(400)})

			So(sink.dismissed, ShouldEqual, 0)
			So(sink.springBacks, ShouldEqual, 1)
		})

		Convey("An upward drag never dismisses", func() {
			r.Handle(Touch{Phase: Ended, X: 200, Y: 100, At: at(50)})

			So(sink.dismissed, ShouldEqual, 0)
			So(sink.springBacks, ShouldEqual, 1)
		})

		Convey("Progress is reported as a fraction of the dismiss distance", func() {
			r.Handle(Touch{Phase: Moved, X: 200, Y: 360, At: at(100)})

			So(sink.progress, ShouldResemble, []float64{0.5})
		})
	})
}
