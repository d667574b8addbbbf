package player

import (
	"github.com/jellysan-cli/jellysan/gesture"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/playback"
	"github.com/spf13/viper"
)

var _ gesture.Sink = (*GestureSink)(nil)

// brightnessController is implemented by backends with an adjustable video
// equalizer.
type brightnessController interface {
	GetBrightness() (float64, error)
	SetBrightness(value float64) error
}

// GestureSink routes recognized gestures onto the engine and the backend:
// scrubs become engine seeks, edge drags move the backend's volume and
// brightness, and a dismiss stops playback.
type GestureSink struct {
	engine  *playback.Engine
	backend Player

	// OnDismiss runs after a dismiss gesture has stopped the engine.
	OnDismiss func()

	lastVolume     float64
	lastBrightness float64
}

// NewGestureSink creates a sink driving the given engine and backend.
func NewGestureSink(engine *playback.Engine, backend Player) *GestureSink {
	return &GestureSink{
		engine:         engine,
		backend:        backend,
		lastVolume:     1,
		lastBrightness: 0.5,
	}
}

func (g *GestureSink) Volume() float64 {
	value, err := g.backend.GetVolume()
	if err != nil {
		return g.lastVolume
	}
	g.lastVolume = value
	return value
}

func (g *GestureSink) SetVolume(value float64) {
	g.lastVolume = value
	if err := g.backend.SetVolume(value); err != nil {
		log.Warnf("setting volume: %v", err)
	}
}

func (g *GestureSink) Brightness() float64 {
	controller, ok := g.backend.(brightnessController)
	if !ok {
		return g.lastBrightness
	}

	value, err := controller.GetBrightness()
	if err != nil {
		return g.lastBrightness
	}
	g.lastBrightness = value
	return value
}

func (g *GestureSink) SetBrightness(value float64) {
	g.lastBrightness = value
	controller, ok := g.backend.(brightnessController)
	if !ok {
		return
	}
	if err := controller.SetBrightness(value); err != nil {
		log.Warnf("setting brightness: %v", err)
	}
}

func (g *GestureSink) DurationMs() int64 {
	return g.engine.DurationMs()
}

func (g *GestureSink) SeekPreview(positionMs int64) {
	g.engine.SeekPreview(positionMs)
}

func (g *GestureSink) SeekCommit() {
	g.engine.SeekCommit()
}

func (g *GestureSink) SeekCancel() {
	g.engine.SeekCancel()
}

func (g *GestureSink) DismissProgress(fraction float64) {
	// The visual pull-down lives in the UI layer; nothing to do here.
}

func (g *GestureSink) Dismiss() {
	g.engine.Stop()
	if g.OnDismiss != nil {
		g.OnDismiss()
	}
}

func (g *GestureSink) SpringBack() {}

// RecognizerFor builds a gesture recognizer over a surface of the given
// dimensions, zoned from the gesture configuration keys.
func (g *GestureSink) RecognizerFor(width, height float64) *gesture.Recognizer {
	cfg := gesture.DefaultConfig(width, height)
	cfg.EdgeZoneWidth = viper.GetFloat64(key.GestureEdgeZoneWidth)
	cfg.InvertEdges = viper.GetBool(key.GestureInvertEdges)
	cfg.AmbientSensitivity = viper.GetFloat64(key.GestureAmbientSensitivity)
	cfg.DismissDistance = viper.GetFloat64(key.GestureDismissDistance)
	cfg.DismissVelocity = viper.GetFloat64(key.GestureDismissVelocity)
	return gesture.NewRecognizer(cfg, g)
}
