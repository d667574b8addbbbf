package cast

import (
	"sync"

	"github.com/jellysan-cli/jellysan/source"
)

// FakeSink is an in-memory sink for tests and dry runs.
type FakeSink struct {
	mu sync.Mutex

	ConnectedState bool
	Loaded         *source.MediaItem
	StreamURL      string
	PositionMs     int64
	Playing        bool
	Commands       []string
}

func (f *FakeSink) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ConnectedState
}

func (f *FakeSink) LoadMedia(item *source.MediaItem, streamURL string, positionMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loaded = item
	f.StreamURL = streamURL
	f.PositionMs = positionMs
	f.Playing = true
	f.Commands = append(f.Commands, "load")
	return nil
}

func (f *FakeSink) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playing = true
	f.Commands = append(f.Commands, "play")
	return nil
}

func (f *FakeSink) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playing = false
	f.Commands = append(f.Commands, "pause")
	return nil
}

func (f *FakeSink) Seek(positionMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PositionMs = positionMs
	f.Commands = append(f.Commands, "seek")
	return nil
}

func (f *FakeSink) Stop() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playing = false
	f.Commands = append(f.Commands, "stop")
	return f.PositionMs, nil
}
