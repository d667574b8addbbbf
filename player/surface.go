package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/session"
	"github.com/jellysan-cli/jellysan/ticks"
)

// Events is the slice of the engine the surface feeds playback events into.
type Events interface {
	HandleReady(durationMs int64)
	HandleProgress(positionMs int64)
	HandleBuffering(buffering bool)
	HandleEnded(ctx context.Context)
	HandleSurfaceError(err error)
}

// Surface adapts a Player backend to the engine: commands flow down through
// Load, Pause, Seek and Stop; observed mpv properties flow back up as engine
// events.
type Surface struct {
	backend Player

	mu       sync.Mutex
	engine   Events
	listener *EventListener
	ready    bool
}

// NewSurface wraps a playback backend. Bind must be called before Load.
func NewSurface(backend Player) *Surface {
	return &Surface{backend: backend}
}

// Bind connects the surface to the engine that receives its events.
func (s *Surface) Bind(engine Events) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

// Backend exposes the wrapped player, for callers that need direct control
// like volume or chapter lists.
func (s *Surface) Backend() Player {
	return s.backend
}

// Load starts the backend on the session's stream and begins observing it.
func (s *Surface) Load(sess *session.PlaySession, startMs int64) error {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	if engine == nil {
		return fmt.Errorf("surface not bound to an engine")
	}

	title := sess.Item.String()
	if err := s.backend.Play(sess.StreamURL, title, float64(startMs)/1000, nil); err != nil {
		return err
	}

	if index, ok := sess.AudioStreamIndex.Get(); ok {
		if err := s.backend.SelectAudio(index); err != nil {
			log.Warnf("selecting audio track %d: %v", index, err)
		}
	}
	if index, ok := sess.SubtitleStreamIndex.Get(); ok {
		if err := s.backend.SelectSubtitle(index); err != nil {
			log.Warnf("selecting subtitle track %d: %v", index, err)
		}
	}

	s.mu.Lock()
	s.ready = false
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewEventListener(s.backend.Socket(), s.handleEvent)
	listener := s.listener
	s.mu.Unlock()

	if err := listener.Start(); err != nil {
		// IINA and friends have no observable socket; playback still
		// works, just without live progress.
		log.Warnf("player events unavailable: %v", err)
	}
	return nil
}

func (s *Surface) Resume() error {
	return s.backend.SetPause(false)
}

func (s *Surface) Pause() error {
	return s.backend.SetPause(true)
}

func (s *Surface) Seek(positionMs int64) error {
	return s.backend.Seek(float64(positionMs) / 1000)
}

// Stop tears down the observer and the backend process.
func (s *Surface) Stop() error {
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	s.ready = false
	s.mu.Unlock()

	return s.backend.Close()
}

// Wait returns a channel closed when the backend process exits.
func (s *Surface) Wait() <-chan struct{} {
	return s.backend.Wait()
}

// handleEvent translates one observed mpv property change into engine events.
func (s *Surface) handleEvent(property string, data interface{}) {
	s.mu.Lock()
	engine := s.engine
	ready := s.ready
	s.mu.Unlock()

	if engine == nil {
		return
	}

	switch property {
	case "duration":
		seconds, ok := data.(float64)
		if !ok || seconds <= 0 {
			return
		}
		s.mu.Lock()
		first := !s.ready
		s.ready = true
		s.mu.Unlock()

		if first {
			engine.HandleReady(ticks.ToMilliseconds(ticks.FromSeconds(seconds)))
		}
	case "time-pos":
		seconds, ok := data.(float64)
		if !ok {
			return
		}
		engine.HandleProgress(int64(seconds * 1000))
	case "seeking":
		stalled, ok := data.(bool)
		if !ok {
			return
		}
		engine.HandleBuffering(stalled)
	case "eof-reached":
		reached, ok := data.(bool)
		if ok && reached && ready {
			engine.HandleEnded(context.Background())
		}
	case "pause":
		// Pause flips initiated from the player UI itself; state already
		// flows through the engine for its own toggles.
		log.Debugf("player pause changed externally: %v", data)
	}
}
