// Package queue maintains the up-next list: ordering, shuffle, repeat and
// cursor movement.
package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/jellysan-cli/jellysan/source"
)

// RepeatMode controls what happens when the cursor runs off either end.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Cycle returns the next repeat mode in the off, all, one rotation.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Queue is a cursor over an ordered list of items. The base order is what the
// user built; shuffle overlays a seed-derived permutation on top of it, so
// toggling shuffle off restores the original order exactly.
type Queue struct {
	mu sync.Mutex

	base     []*source.MediaItem
	order    []*source.MediaItem
	cursor   int
	repeat   RepeatMode
	shuffled bool
	seed     int64
}

// New creates an empty queue with repeat off.
func New() *Queue {
	return &Queue{repeat: RepeatOff}
}

// Set replaces the queue contents and places the cursor at startIndex in the
// base order. Shuffle and repeat settings survive the replacement.
func (q *Queue) Set(items []*source.MediaItem, startIndex int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.base = lo.Slice(items, 0, len(items))
	startIndex = clampIndex(startIndex, len(q.base))

	var current *source.MediaItem
	if len(q.base) > 0 {
		current = q.base[startIndex]
	}
	q.derive(current)
}

// derive rebuilds the play order from the base order and the shuffle seed,
// keeping current as the item under the cursor. Re-deriving with the same base
// and seed always yields the same order.
func (q *Queue) derive(current *source.MediaItem) {
	if !q.shuffled {
		q.order = append([]*source.MediaItem(nil), q.base...)
		q.cursor = indexOf(q.order, current)
		return
	}

	rng := rand.New(rand.NewSource(q.seed))
	perm := rng.Perm(len(q.base))

	q.order = make([]*source.MediaItem, len(q.base))
	for i, j := range perm {
		q.order[i] = q.base[j]
	}

	// The playing item always leads the shuffled order.
	if at := indexOf(q.order, current); at > 0 {
		item := q.order[at]
		q.order = append(q.order[:at], q.order[at+1:]...)
		q.order = append([]*source.MediaItem{item}, q.order...)
	}
	q.cursor = 0
	if current == nil {
		q.cursor = clampIndex(q.cursor, len(q.order))
	}
}

// Current returns the item under the cursor.
func (q *Queue) Current() (*source.MediaItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil, false
	}
	return q.order[q.cursor], true
}

// Next advances the cursor and returns the new current item. With repeat one
// the cursor stays put; with repeat all it wraps; with repeat off running past
// the last item reports exhaustion and leaves the cursor on the last item.
func (q *Queue) Next() (*source.MediaItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil, false
	}

	switch {
	case q.repeat == RepeatOne:
		// stay
	case q.cursor+1 < len(q.order):
		q.cursor++
	case q.repeat == RepeatAll:
		q.cursor = 0
	default:
		return nil, false
	}
	return q.order[q.cursor], true
}

// Previous moves the cursor back one item. At the head of the queue it stays
// on the first item.
func (q *Queue) Previous() (*source.MediaItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil, false
	}

	if q.repeat != RepeatOne && q.cursor > 0 {
		q.cursor--
	} else if q.repeat == RepeatAll && q.cursor == 0 {
		q.cursor = len(q.order) - 1
	}
	return q.order[q.cursor], true
}

// SkipTo places the cursor on the given play-order position.
func (q *Queue) SkipTo(position int) (*source.MediaItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if position < 0 || position >= len(q.order) {
		return nil, false
	}
	q.cursor = position
	return q.order[q.cursor], true
}

// Add appends items to the end of the queue.
func (q *Queue) Add(items ...*source.MediaItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	current := q.currentLocked()
	q.base = append(q.base, items...)
	q.derive(current)
}

// InsertPlayNext places the item right after the current one in the base
// order, so it plays next regardless of shuffle.
func (q *Queue) InsertPlayNext(item *source.MediaItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	current := q.currentLocked()
	at := indexOf(q.base, current) + 1

	q.base = append(q.base, nil)
	copy(q.base[at+1:], q.base[at:])
	q.base[at] = item

	if q.shuffled {
		q.derive(current)
		// Splice into the shuffled order too, right after the cursor.
		q.order = lo.Reject(q.order, func(it *source.MediaItem, _ int) bool { return it == item })
		next := q.cursor + 1
		q.order = append(q.order, nil)
		copy(q.order[next+1:], q.order[next:])
		q.order[next] = item
		q.cursor = indexOf(q.order, current)
		return
	}
	q.derive(current)
}

// Remove deletes the item at the given play-order position. Removing the
// current item keeps the cursor in place so the following item becomes
// current.
func (q *Queue) Remove(position int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if position < 0 || position >= len(q.order) {
		return false
	}

	removed := q.order[position]
	current := q.currentLocked()
	if removed == current {
		current = nil
	}

	q.base = lo.Reject(q.base, func(it *source.MediaItem, _ int) bool { return it == removed })

	if current == nil && len(q.base) > 0 {
		// Keep the cursor position so the next item slides under it.
		keep := clampIndex(position, len(q.base))
		q.derive(nil)
		q.cursor = clampIndex(keep, len(q.order))
		return true
	}
	q.derive(current)
	return true
}

// Reorder moves the item at position from to position to in the base order.
func (q *Queue) Reorder(from, to int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if from < 0 || from >= len(q.base) || to < 0 || to >= len(q.base) || from == to {
		return false
	}

	current := q.currentLocked()

	item := q.base[from]
	q.base = append(q.base[:from], q.base[from+1:]...)
	q.base = append(q.base, nil)
	copy(q.base[to+1:], q.base[to:])
	q.base[to] = item

	q.derive(current)
	return true
}

// ToggleShuffle flips shuffle. Enabling draws a fresh seed and moves the
// current item to the head of the shuffled order; disabling restores the base
// order with the cursor back on the current item.
func (q *Queue) ToggleShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	current := q.currentLocked()
	q.shuffled = !q.shuffled
	if q.shuffled {
		q.seed = time.Now().UnixNano()
	}
	q.derive(current)
	return q.shuffled
}

// Shuffled reports whether shuffle is on.
func (q *Queue) Shuffled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffled
}

// CycleRepeat rotates the repeat mode and returns the new one.
func (q *Queue) CycleRepeat() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.repeat = q.repeat.Cycle()
	return q.repeat
}

// Repeat returns the current repeat mode.
func (q *Queue) Repeat() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

// SetRepeat sets the repeat mode directly.
func (q *Queue) SetRepeat(mode RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = mode
}

// Items returns the queue in play order.
func (q *Queue) Items() []*source.MediaItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*source.MediaItem(nil), q.order...)
}

// Position returns the cursor's play-order position.
func (q *Queue) Position() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

func (q *Queue) currentLocked() *source.MediaItem {
	if len(q.order) == 0 {
		return nil
	}
	return q.order[q.cursor]
}

func indexOf(items []*source.MediaItem, item *source.MediaItem) int {
	if item == nil {
		return 0
	}
	for i, it := range items {
		if it == item {
			return i
		}
	}
	return 0
}

func clampIndex(i, length int) int {
	if length == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	return i
}
