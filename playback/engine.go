// Package playback is the session engine: it drives the player surface,
// advances the queue, and reports session lifecycle to the server.
//
// Locking: mu guards engine state; reportMu serializes every server report.
// A progress tick re-checks that its session is still the live one while
// holding reportMu, which guarantees no progress report is sent after the
// session's stop report.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/jellysan-cli/jellysan/cast"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/queue"
	"github.com/jellysan-cli/jellysan/resolver"
	"github.com/jellysan-cli/jellysan/session"
	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/ticks"
)

// Resolver resolves an item into a playable stream.
type Resolver interface {
	Resolve(ctx context.Context, item *source.MediaItem) (*resolver.Resolution, error)
}

// Surface is the player the engine drives. Implementations call the engine's
// Handle methods to feed playback events back in.
type Surface interface {
	Load(s *session.PlaySession, startMs int64) error
	Resume() error
	Pause() error
	Seek(positionMs int64) error
	Stop() error
}

// Options configures an engine.
type Options struct {
	Resolver Resolver
	Reporter session.Reporter
	Surface  Surface
	Queue    *queue.Queue

	// ReportInterval is the progress report cadence. Zero disables periodic
	// reports; lifecycle reports are sent regardless.
	ReportInterval time.Duration

	// AutoplayNext advances the queue when an item plays to the end.
	AutoplayNext bool

	// Cast, when set and connected, receives a mirror of every transport
	// command. Session reporting stays with the engine.
	Cast cast.Sink

	// RestartThreshold is how far into an item a previous-skip restarts it
	// instead of moving back in the queue.
	RestartThreshold time.Duration

	// PreferredAudioLang and PreferredSubsLang select embedded streams by
	// ISO 639-2 language on every new session. Empty values keep the source
	// defaults (and leave subtitles off).
	PreferredAudioLang string
	PreferredSubsLang  string

	// OnStateChange is called after every state transition, outside the
	// engine lock.
	OnStateChange func(State)
}

// Engine owns one playback session at a time.
type Engine struct {
	mu       sync.Mutex
	reportMu sync.Mutex

	resolver Resolver
	reporter session.Reporter
	surface  Surface
	queue    *queue.Queue
	cast     cast.Sink

	reportInterval   time.Duration
	autoplayNext     bool
	restartThreshold time.Duration
	audioLang        string
	subsLang         string
	onStateChange    func(State)

	state       State
	sess        *session.PlaySession
	positionMs  int64
	durationMs  int64
	paused      bool
	preview     mo.Option[int64]
	pendingItem *source.MediaItem
	lastErr     error

	tickerStop chan struct{}
}

// NewEngine creates an idle engine.
func NewEngine(opts Options) *Engine {
	if opts.Queue == nil {
		opts.Queue = queue.New()
	}
	if opts.Reporter == nil {
		opts.Reporter = session.NopReporter{}
	}
	if opts.RestartThreshold <= 0 {
		opts.RestartThreshold = 3 * time.Second
	}

	return &Engine{
		resolver:         opts.Resolver,
		reporter:         opts.Reporter,
		surface:          opts.Surface,
		queue:            opts.Queue,
		cast:             opts.Cast,
		reportInterval:   opts.ReportInterval,
		autoplayNext:     opts.AutoplayNext,
		restartThreshold: opts.RestartThreshold,
		audioLang:        opts.PreferredAudioLang,
		subsLang:         opts.PreferredSubsLang,
		onStateChange:    opts.OnStateChange,
		state:            StateIdle,
		preview:          mo.None[int64](),
	}
}

// Queue exposes the engine's queue for building and reordering.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns the live session, if any.
func (e *Engine) Session() (*session.PlaySession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess, e.sess != nil
}

// PositionMs returns the position the UI should display: the seek preview
// while one is active, otherwise the surface-reported position.
func (e *Engine) PositionMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preview.OrElse(e.positionMs)
}

// DurationMs returns the duration of the playing item in milliseconds.
func (e *Engine) DurationMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationMs
}

// Err returns the error that put the engine into the error state.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// setState transitions the state and fires the change callback outside the
// lock. Callers must not hold mu.
func (e *Engine) setState(s State) {
	e.mu.Lock()
	changed := e.state != s
	e.state = s
	callback := e.onStateChange
	e.mu.Unlock()

	if changed && callback != nil {
		callback(s)
	}
}

// PlayItem starts playback of an item, replacing any live session. Resolution
// runs asynchronously; a later PlayItem call supersedes an unfinished one and
// the stale result is discarded.
func (e *Engine) PlayItem(ctx context.Context, item *source.MediaItem) {
	e.stopCurrent()

	e.mu.Lock()
	e.pendingItem = item
	e.lastErr = nil
	e.mu.Unlock()
	e.setState(StateLoading)

	go func() {
		res, err := e.resolver.Resolve(ctx, item)

		// reportMu is held across publication and the start report so a
		// racing Stop cannot slip its stop report in between.
		e.reportMu.Lock()
		e.mu.Lock()
		if e.pendingItem != item {
			// A newer PlayItem superseded this resolution.
			e.mu.Unlock()
			e.reportMu.Unlock()
			return
		}
		e.pendingItem = nil

		if err != nil {
			e.lastErr = err
			e.mu.Unlock()
			e.reportMu.Unlock()
			e.setState(StateError)
			log.Errorf("resolving %q: %v", item.Name, err)
			return
		}

		sess := session.New(res)
		sess.SelectPreferredTracks(e.audioLang, e.subsLang)
		e.sess = sess
		e.positionMs = 0
		e.durationMs = item.DurationMs()
		e.paused = false
		e.preview = mo.None[int64]()
		e.mu.Unlock()

		e.reporter.Start(sess)
		e.reportMu.Unlock()

		startMs := item.ResumeMs().OrElse(0)
		if err := e.surface.Load(sess, startMs); err != nil {
			e.failSession(sess, err)
			return
		}
		if e.castConnected() {
			if err := e.cast.LoadMedia(item, sess.StreamURL, startMs); err != nil {
				log.Warnf("mirroring load to cast sink: %v", err)
			}
		}
		e.startTicker()
	}()
}

// failSession tears down a session that could not be loaded.
func (e *Engine) failSession(sess *session.PlaySession, err error) {
	e.mu.Lock()
	if e.sess != sess {
		e.mu.Unlock()
		return
	}
	e.sess = nil
	e.lastErr = err
	position := e.positionMs
	e.stopTickerLocked()
	e.mu.Unlock()

	e.reportMu.Lock()
	e.reporter.Stop(sess, ticks.FromMilliseconds(position))
	e.reportMu.Unlock()

	e.setState(StateError)
	log.Errorf("session %s failed: %v", sess.ID, err)
}

// startTicker begins periodic progress reporting for the live session.
func (e *Engine) startTicker() {
	if e.reportInterval <= 0 {
		return
	}

	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return
	}
	e.stopTickerLocked()
	stop := make(chan struct{})
	e.tickerStop = stop
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(e.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.reportProgress()
			}
		}
	}()
}

func (e *Engine) stopTickerLocked() {
	if e.tickerStop != nil {
		close(e.tickerStop)
		e.tickerStop = nil
	}
}

// reportProgress sends one progress report for the live session. The liveness
// re-check happens under reportMu so a racing stop either beats this report
// entirely or is sent after it.
func (e *Engine) reportProgress() {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()

	e.mu.Lock()
	sess := e.sess
	position := e.positionMs
	paused := e.paused
	state := e.state
	e.mu.Unlock()

	if sess == nil {
		return
	}
	if state != StatePlaying && state != StatePaused {
		// No progress while the surface is still opening the stream or
		// stalled in a buffer.
		return
	}
	e.reporter.Progress(sess, ticks.FromMilliseconds(position), paused)
}

// stopCurrent ends the live session, if any: the ticker is stopped and the
// session detached under mu, then the stop report goes out under reportMu.
func (e *Engine) stopCurrent() {
	e.mu.Lock()
	sess := e.sess
	position := e.positionMs
	e.sess = nil
	e.pendingItem = nil
	e.preview = mo.None[int64]()
	e.stopTickerLocked()
	e.mu.Unlock()

	if sess == nil {
		return
	}

	if e.surface != nil {
		if err := e.surface.Stop(); err != nil {
			log.Warnf("stopping surface: %v", err)
		}
	}

	if e.castConnected() {
		lastMs, err := e.cast.Stop()
		if err != nil {
			log.Warnf("stopping cast sink: %v", err)
		} else if lastMs > position {
			// The sink played ahead of the local surface; report where
			// it actually got to.
			position = lastMs
		}
	}

	e.reportMu.Lock()
	e.reporter.Stop(sess, ticks.FromMilliseconds(position))
	e.reportMu.Unlock()
}

func (e *Engine) castConnected() bool {
	return e.cast != nil && e.cast.Connected()
}

// Stop ends playback and returns the engine to idle.
func (e *Engine) Stop() {
	e.stopCurrent()
	e.setState(StateIdle)
}

// TogglePlayPause flips between playing and paused. It is a no-op without a
// live session.
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return
	}
	paused := !e.paused
	e.paused = paused
	sess := e.sess
	position := e.positionMs
	e.mu.Unlock()

	var err error
	if paused {
		err = e.surface.Pause()
	} else {
		err = e.surface.Resume()
	}
	if err != nil {
		log.Warnf("toggling pause: %v", err)
		return
	}

	if e.castConnected() {
		var castErr error
		if paused {
			castErr = e.cast.Pause()
		} else {
			castErr = e.cast.Play()
		}
		if castErr != nil {
			log.Warnf("mirroring pause to cast sink: %v", castErr)
		}
	}

	if paused {
		e.setState(StatePaused)
	} else {
		e.setState(StatePlaying)
	}

	e.reportMu.Lock()
	e.reporter.Progress(sess, ticks.FromMilliseconds(position), paused)
	e.reportMu.Unlock()
}

// Seek jumps to a position, clamped into the item's duration.
func (e *Engine) Seek(positionMs int64) {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return
	}
	target := clampPosition(positionMs, e.durationMs)
	e.positionMs = target
	e.preview = mo.None[int64]()
	sess := e.sess
	paused := e.paused
	e.mu.Unlock()

	if err := e.surface.Seek(target); err != nil {
		log.Warnf("seeking to %dms: %v", target, err)
		return
	}

	if e.castConnected() {
		if err := e.cast.Seek(target); err != nil {
			log.Warnf("mirroring seek to cast sink: %v", err)
		}
	}

	e.reportMu.Lock()
	e.reporter.Progress(sess, ticks.FromMilliseconds(target), paused)
	e.reportMu.Unlock()
}

// SeekPreview shadows the displayed position during a scrub without moving
// actual playback. Commit or cancel resolves it.
func (e *Engine) SeekPreview(positionMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return
	}
	e.preview = mo.Some(clampPosition(positionMs, e.durationMs))
}

// SeekCommit applies the active preview as a real seek.
func (e *Engine) SeekCommit() {
	e.mu.Lock()
	target, ok := e.preview.Get()
	e.mu.Unlock()

	if !ok {
		return
	}
	e.Seek(target)
}

// SeekCancel discards the preview and reverts to the surface position.
func (e *Engine) SeekCancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preview = mo.None[int64]()
}

// SkipToNext plays the next queue item. At the end of the queue with repeat
// off the engine stops.
func (e *Engine) SkipToNext(ctx context.Context) {
	next, ok := e.queue.Next()
	if !ok {
		e.stopCurrent()
		e.setState(StateEnded)
		return
	}
	e.PlayItem(ctx, next)
}

// SkipToPrevious restarts the current item when playback is past the restart
// threshold, otherwise plays the previous queue item.
func (e *Engine) SkipToPrevious(ctx context.Context) {
	e.mu.Lock()
	position := e.positionMs
	hasSession := e.sess != nil
	e.mu.Unlock()

	if hasSession && position > e.restartThreshold.Milliseconds() {
		e.Seek(0)
		return
	}

	previous, ok := e.queue.Previous()
	if !ok {
		return
	}
	e.PlayItem(ctx, previous)
}

// HandleReady is called by the surface once the stream is open and its true
// duration is known.
func (e *Engine) HandleReady(durationMs int64) {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return
	}
	if durationMs > 0 {
		e.durationMs = durationMs
	}
	e.mu.Unlock()

	e.setState(StatePlaying)
}

// HandleProgress is called by the surface with the current playback position.
func (e *Engine) HandleProgress(positionMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return
	}
	e.positionMs = positionMs
}

// HandleBuffering is called by the surface when the stream stalls or recovers.
func (e *Engine) HandleBuffering(buffering bool) {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return
	}
	paused := e.paused
	e.mu.Unlock()

	switch {
	case buffering:
		e.setState(StateBuffering)
	case paused:
		e.setState(StatePaused)
	default:
		e.setState(StatePlaying)
	}
}

// HandleEnded is called by the surface when the item plays to the end. The
// final stop report carries the full duration, then the queue advances if
// autoplay is on.
func (e *Engine) HandleEnded(ctx context.Context) {
	e.mu.Lock()
	sess := e.sess
	duration := e.durationMs
	e.sess = nil
	e.preview = mo.None[int64]()
	e.stopTickerLocked()
	e.mu.Unlock()

	if sess == nil {
		return
	}

	e.reportMu.Lock()
	e.reporter.Stop(sess, ticks.FromMilliseconds(duration))
	e.reportMu.Unlock()

	if e.autoplayNext {
		if next, ok := e.queue.Next(); ok {
			e.PlayItem(ctx, next)
			return
		}
	}
	e.setState(StateEnded)
}

// HandleSurfaceError is called by the surface on an unrecoverable player
// failure.
func (e *Engine) HandleSurfaceError(err error) {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()

	if sess == nil {
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		e.setState(StateError)
		return
	}
	e.failSession(sess, err)
}

func clampPosition(positionMs, durationMs int64) int64 {
	if positionMs < 0 {
		return 0
	}
	if durationMs > 0 && positionMs > durationMs {
		return durationMs
	}
	return positionMs
}
