package playback

// State is the engine's playback lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateBuffering State = "buffering"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateEnded     State = "ended"
	StateError     State = "error"
)

// Active reports whether a session is in flight: anything between loading and
// the terminal states.
func (s State) Active() bool {
	switch s {
	case StateLoading, StateBuffering, StatePlaying, StatePaused:
		return true
	default:
		return false
	}
}
