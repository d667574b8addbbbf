package player

import (
	"testing"
	"time"

	"github.com/jellysan-cli/jellysan/gesture"
	"github.com/jellysan-cli/jellysan/playback"
	. "github.com/smartystreets/goconvey/convey"
)

type stubBackend struct {
	volume     float64
	brightness float64
	closed     bool
	done       chan struct{}
}

func newStubBackend() *stubBackend {
	return &stubBackend{volume: 0.5, brightness: 0.5, done: make(chan struct{})}
}

func (b *stubBackend) Play(url, title string, startSeconds float64, headers map[string]string) error {
	return nil
}
func (b *stubBackend) SetPause(paused bool) error      { return nil }
func (b *stubBackend) GetTimePos() (float64, error)    { return 0, nil }
func (b *stubBackend) GetDuration() (float64, error)   { return 0, nil }
func (b *stubBackend) GetPausedStatus() (bool, error)  { return false, nil }
func (b *stubBackend) Seek(seconds float64) error      { return nil }
func (b *stubBackend) SelectAudio(index int) error     { return nil }
func (b *stubBackend) SelectSubtitle(index int) error  { return nil }
func (b *stubBackend) GetVolume() (float64, error)     { return b.volume, nil }
func (b *stubBackend) SetVolume(value float64) error   { b.volume = value; return nil }
func (b *stubBackend) GetBrightness() (float64, error) { return b.brightness, nil }
func (b *stubBackend) SetBrightness(value float64) error {
	b.brightness = value
	return nil
}
func (b *stubBackend) IsRunning() bool        { return !b.closed }
func (b *stubBackend) Close() error           { b.closed = true; return nil }
func (b *stubBackend) Socket() string         { return "" }
func (b *stubBackend) Wait() <-chan struct{}  { return b.done }

func drag(rec *gesture.Recognizer, x, fromY, toY float64, over time.Duration) {
	start := time.Now()
	rec.Handle(gesture.Touch{Phase: gesture.Began, X: x, Y: fromY, At: start})
	rec.Handle(gesture.Touch{Phase: gesture.Moved, X: x, Y: (fromY + toY) / 2, At: start.Add(over / 2)})
	rec.Handle(gesture.Touch{Phase: gesture.Moved, X: x, Y: toY, At: start.Add(over)})
	rec.Handle(gesture.Touch{Phase: gesture.Ended, X: x, Y: toY, At: start.Add(over)})
}

func TestGestureSink(t *testing.T) {
	Convey("Given a gesture sink over a stub backend", t, func() {
		backend := newStubBackend()
		engine := playback.NewEngine(playback.Options{})
		sink := NewGestureSink(engine, backend)

		cfg := gesture.DefaultConfig(400, 800)
		rec := gesture.NewRecognizer(cfg, sink)

		Convey("A left-edge drag adjusts the backend volume", func() {
			drag(rec, 20, 600, 500, 200*time.Millisecond)

			So(backend.volume, ShouldAlmostEqual, 0.5+100*cfg.AmbientSensitivity, 0.0001)
		})

		Convey("A right-edge drag adjusts the backend brightness", func() {
			drag(rec, 390, 600, 500, 200*time.Millisecond)

			So(backend.brightness, ShouldAlmostEqual, 0.5+100*cfg.AmbientSensitivity, 0.0001)
			So(backend.volume, ShouldEqual, 0.5)
		})

		Convey("A downward fling dismisses playback", func() {
			dismissed := false
			sink.OnDismiss = func() { dismissed = true }

			drag(rec, 200, 200, 500, 100*time.Millisecond)

			So(dismissed, ShouldBeTrue)
			So(engine.State(), ShouldEqual, playback.StateIdle)
		})
	})
}
