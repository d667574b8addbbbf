// Package ticks provides pure conversions between server tick units and device time.
//
// Media servers express positions and durations in ticks (10,000,000 per second).
// The playback engine works exclusively in milliseconds; conversion happens at the
// protocol boundary only.
package ticks

import "time"

const (
	// PerSecond is the number of server ticks in one second.
	PerSecond int64 = 10_000_000

	// PerMillisecond is the number of server ticks in one millisecond.
	PerMillisecond int64 = 10_000
)

// FromMilliseconds converts a device millisecond position to server ticks.
func FromMilliseconds(ms int64) int64 {
	return ms * PerMillisecond
}

// ToMilliseconds converts a server tick position to device milliseconds.
func ToMilliseconds(t int64) int64 {
	return t / PerMillisecond
}

// FromSeconds converts a fractional second position (e.g. an mpv time-pos) to server ticks.
func FromSeconds(s float64) int64 {
	return int64(s * float64(PerSecond))
}

// ToSeconds converts a server tick position to fractional seconds.
func ToSeconds(t int64) float64 {
	return float64(t) / float64(PerSecond)
}

// FromDuration converts a time.Duration to server ticks.
func FromDuration(d time.Duration) int64 {
	return d.Nanoseconds() / 100
}

// ToDuration converts server ticks to a time.Duration.
func ToDuration(t int64) time.Duration {
	return time.Duration(t * 100)
}
