// Package gesture arbitrates touch input over the player surface.
//
// A touch is claimed by exactly one recognizer at touch-start based on where
// it lands: the screen edges control volume and brightness, the bottom track
// scrubs, and the remaining area can dismiss the player with a downward fling.
// The winner keeps the touch until it ends or is cancelled, so a single
// gesture commits at most one action.
package gesture

import (
	"time"

	"github.com/jellysan-cli/jellysan/util"
)

// Phase is the lifecycle phase of a touch.
type Phase int

const (
	Began Phase = iota
	Moved
	Ended
	Cancelled
)

// Touch is a single pointer sample in surface coordinates.
type Touch struct {
	Phase Phase
	X     float64
	Y     float64
	At    time.Time
}

// Kind identifies which recognizer claimed the touch.
type Kind string

const (
	KindNone       Kind = "none"
	KindVolume     Kind = "volume"
	KindBrightness Kind = "brightness"
	KindSeek       Kind = "seek"
	KindDismiss    Kind = "dismiss"
)

// Sink receives the effects of recognized gestures. Ambient values are in the
// 0 to 1 range.
type Sink interface {
	Volume() float64
	SetVolume(value float64)
	Brightness() float64
	SetBrightness(value float64)

	DurationMs() int64
	SeekPreview(positionMs int64)
	SeekCommit()
	SeekCancel()

	DismissProgress(fraction float64)
	Dismiss()
	SpringBack()
}

// Config sizes the gesture zones for a surface.
type Config struct {
	Width  float64
	Height float64

	// EdgeZoneWidth is the width of the vertical strips along both screen
	// edges that host the ambient controls.
	EdgeZoneWidth float64

	// InvertEdges swaps the edge assignments. The default puts volume on
	// the left edge and brightness on the right.
	InvertEdges bool

	// AmbientSensitivity is the ambient value change per point of vertical
	// travel.
	AmbientSensitivity float64

	// AmbientHoldDelay is how long an edge touch must be held before it
	// starts moving its ambient value. An accidental edge brush that ends
	// inside the delay changes nothing.
	AmbientHoldDelay time.Duration

	// SeekTrackHeight is the height of the scrub strip along the bottom.
	SeekTrackHeight float64

	// DismissDistance and DismissVelocity are the thresholds under either
	// of which a downward drag springs back instead of dismissing.
	DismissDistance float64
	DismissVelocity float64
}

// DefaultConfig returns gesture zones sized for the given surface dimensions.
func DefaultConfig(width, height float64) Config {
	return Config{
		Width:              width,
		Height:             height,
		EdgeZoneWidth:      60,
		AmbientSensitivity: 0.003,
		AmbientHoldDelay:   150 * time.Millisecond,
		SeekTrackHeight:    80,
		DismissDistance:    120,
		DismissVelocity:    800,
	}
}

// Recognizer arbitrates touches for one surface. It is not safe for
// concurrent use; feed it from a single input loop.
type Recognizer struct {
	cfg  Config
	sink Sink

	active     Kind
	start      Touch
	last       Touch
	startValue float64
}

// NewRecognizer creates a recognizer feeding the given sink.
func NewRecognizer(cfg Config, sink Sink) *Recognizer {
	if cfg.AmbientSensitivity <= 0 {
		cfg.AmbientSensitivity = 0.003
	}
	return &Recognizer{cfg: cfg, sink: sink, active: KindNone}
}

// Active returns the kind currently claiming the touch.
func (r *Recognizer) Active() Kind {
	return r.active
}

// Handle feeds one touch sample through arbitration.
func (r *Recognizer) Handle(touch Touch) {
	switch touch.Phase {
	case Began:
		r.begin(touch)
	case Moved:
		r.move(touch)
	case Ended:
		r.end(touch)
	case Cancelled:
		r.cancel()
	}
}

// begin claims the touch for the recognizer whose zone it landed in. Zones
// are checked in priority order so an edge touch near the bottom corner still
// controls its ambient value rather than scrubbing.
func (r *Recognizer) begin(touch Touch) {
	if r.active != KindNone {
		// A second pointer during an active gesture is ignored.
		return
	}

	r.start = touch
	r.last = touch

	switch {
	case touch.X < r.cfg.EdgeZoneWidth:
		r.active = r.leftEdgeKind()
	case touch.X > r.cfg.Width-r.cfg.EdgeZoneWidth:
		r.active = r.rightEdgeKind()
	case touch.Y > r.cfg.Height-r.cfg.SeekTrackHeight:
		r.active = KindSeek
	default:
		r.active = KindDismiss
	}

	switch r.active {
	case KindVolume:
		r.startValue = r.sink.Volume()
	case KindBrightness:
		r.startValue = r.sink.Brightness()
	case KindSeek:
		r.sink.SeekPreview(r.seekTarget(touch))
	}
}

func (r *Recognizer) leftEdgeKind() Kind {
	if r.cfg.InvertEdges {
		return KindBrightness
	}
	return KindVolume
}

func (r *Recognizer) rightEdgeKind() Kind {
	if r.cfg.InvertEdges {
		return KindVolume
	}
	return KindBrightness
}

func (r *Recognizer) move(touch Touch) {
	if r.active == KindNone {
		return
	}
	r.last = touch

	switch r.active {
	case KindVolume:
		if r.ambientHeld(touch) {
			r.sink.SetVolume(r.ambientValue(touch))
		}
	case KindBrightness:
		if r.ambientHeld(touch) {
			r.sink.SetBrightness(r.ambientValue(touch))
		}
	case KindSeek:
		r.sink.SeekPreview(r.seekTarget(touch))
	case KindDismiss:
		r.sink.DismissProgress(r.dismissFraction(touch))
	}
}

func (r *Recognizer) end(touch Touch) {
	if r.active == KindNone {
		return
	}
	r.last = touch

	switch r.active {
	case KindSeek:
		r.sink.SeekPreview(r.seekTarget(touch))
		r.sink.SeekCommit()
	case KindDismiss:
		if r.shouldDismiss(touch) {
			r.sink.Dismiss()
		} else {
			r.sink.SpringBack()
		}
	}
	// Ambient gestures already applied their value on every move.
	r.active = KindNone
}

func (r *Recognizer) cancel() {
	if r.active == KindNone {
		return
	}

	switch r.active {
	case KindSeek:
		r.sink.SeekCancel()
	case KindDismiss:
		r.sink.SpringBack()
	case KindVolume:
		r.sink.SetVolume(r.startValue)
	case KindBrightness:
		r.sink.SetBrightness(r.startValue)
	}
	r.active = KindNone
}

// ambientHeld reports whether the touch has been held past the ambient hold
// delay. The value baseline stays at touch-start, so the full travel applies
// once the hold elapses.
func (r *Recognizer) ambientHeld(touch Touch) bool {
	return touch.At.Sub(r.start.At) >= r.cfg.AmbientHoldDelay
}

// ambientValue maps vertical travel since touch-start onto the ambient scale.
// Dragging up raises the value.
func (r *Recognizer) ambientValue(touch Touch) float64 {
	delta := (r.start.Y - touch.Y) * r.cfg.AmbientSensitivity
	return util.Clamp(r.startValue+delta, 0, 1)
}

// seekTarget maps the horizontal position across the full width onto the item
// duration.
func (r *Recognizer) seekTarget(touch Touch) int64 {
	duration := r.sink.DurationMs()
	if duration <= 0 || r.cfg.Width <= 0 {
		return 0
	}
	fraction := util.Clamp(touch.X/r.cfg.Width, 0, 1)
	return int64(fraction * float64(duration))
}

func (r *Recognizer) dismissFraction(touch Touch) float64 {
	if r.cfg.DismissDistance <= 0 {
		return 0
	}
	return util.Clamp((touch.Y-r.start.Y)/r.cfg.DismissDistance, 0, 1)
}

// shouldDismiss accepts a downward drag that either travelled the full
// dismiss distance or was flung fast enough.
func (r *Recognizer) shouldDismiss(touch Touch) bool {
	travel := touch.Y - r.start.Y
	if travel <= 0 {
		return false
	}
	if travel >= r.cfg.DismissDistance {
		return true
	}

	elapsed := touch.At.Sub(r.start.At).Seconds()
	if elapsed <= 0 {
		return false
	}
	return travel/elapsed >= r.cfg.DismissVelocity
}
