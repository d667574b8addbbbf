// Package download manages offline copies of library items.
//
// Downloads stream into the downloads directory through the shared HTTP
// client; their state is persisted so completed files survive restarts and
// playback can prefer the local copy.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/metafates/gache"

	"github.com/jellysan-cli/jellysan/filesystem"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/network"
	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/util"
	"github.com/jellysan-cli/jellysan/where"
)

// Status is the lifecycle state of one download.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Record is the persisted state of one download.
type Record struct {
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Status    Status    `json:"status"`
	Percent   float64   `json:"percent"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	stateMu sync.Mutex
	cacher  = gache.New[map[string]*Record](
		&gache.Options{
			Path:       where.DownloadState(),
			FileSystem: &filesystem.GacheFs{},
		},
	)
)

// records returns the persisted download state.
func records() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// put upserts one record in the persisted state.
func put(record *Record) error {
	stateMu.Lock()
	defer stateMu.Unlock()

	saved, err := records()
	if err != nil {
		return err
	}
	record.UpdatedAt = time.Now()
	saved[record.ItemID] = record
	return cacher.Set(saved)
}

// StatusOf returns the download record for an item, if any.
func StatusOf(itemID string) (*Record, bool) {
	stateMu.Lock()
	defer stateMu.Unlock()

	saved, err := records()
	if err != nil {
		return nil, false
	}
	record, ok := saved[itemID]
	return record, ok
}

// All returns every download record.
func All() ([]*Record, error) {
	stateMu.Lock()
	defer stateMu.Unlock()

	saved, err := records()
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(saved))
	for _, record := range saved {
		out = append(out, record)
	}
	return out, nil
}

// LocalPath returns the on-disk path of a completed download.
func LocalPath(itemID string) (string, bool) {
	record, ok := StatusOf(itemID)
	if !ok || record.Status != StatusCompleted {
		return "", false
	}
	if exists, err := filesystem.API().Exists(record.Path); err != nil || !exists {
		return "", false
	}
	return record.Path, true
}

// Remove deletes a download's file and record.
func Remove(itemID string) error {
	record, ok := StatusOf(itemID)
	if !ok {
		return nil
	}

	if record.Path != "" {
		if err := filesystem.API().Remove(record.Path); err != nil {
			log.Warnf("removing %s: %v", record.Path, err)
		}
	}

	stateMu.Lock()
	defer stateMu.Unlock()
	saved, err := records()
	if err != nil {
		return err
	}
	delete(saved, itemID)
	return cacher.Set(saved)
}

// Manager runs downloads with a bounded amount of parallelism.
type Manager struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewManager creates a manager allowing up to concurrent parallel downloads.
func NewManager(concurrent int) *Manager {
	if concurrent < 1 {
		concurrent = 1
	}
	return &Manager{sem: make(chan struct{}, concurrent)}
}

// Start queues a download for an item. The stream URL must point at a static
// source; transcoded playlists are not downloadable.
func (m *Manager) Start(ctx context.Context, item *source.MediaItem, streamURL, container string) error {
	if record, ok := StatusOf(item.ID); ok {
		switch record.Status {
		case StatusCompleted, StatusDownloading, StatusPending:
			return fmt.Errorf("%q is already %s", item.Name, record.Status)
		}
	}

	path := targetPath(item, container)
	if err := put(&Record{ItemID: item.ID, Name: item.Name, Path: path, Status: StatusPending}); err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.sem <- struct{}{}
		defer func() { <-m.sem }()

		if err := m.fetch(ctx, item, streamURL, path); err != nil {
			log.Errorf("downloading %q: %v", item.Name, err)
			_ = put(&Record{ItemID: item.ID, Name: item.Name, Path: path, Status: StatusFailed, Error: err.Error()})
			return
		}
		_ = put(&Record{ItemID: item.ID, Name: item.Name, Path: path, Status: StatusCompleted, Percent: 100})
	}()
	return nil
}

// StartBatch queues downloads for several items, skipping ones that are
// already present and collecting per-item errors.
func (m *Manager) StartBatch(ctx context.Context, items []*source.MediaItem, urls map[string]string, containers map[string]string) []error {
	var errs []error
	for _, item := range items {
		if err := m.Start(ctx, item, urls[item.ID], containers[item.ID]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Wait blocks until all queued downloads finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// fetch streams the source to disk, updating percent as bytes arrive.
func (m *Manager) fetch(ctx context.Context, item *source.MediaItem, streamURL, path string) error {
	_ = put(&Record{ItemID: item.ID, Name: item.Name, Path: path, Status: StatusDownloading})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := filesystem.API().MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := filesystem.API().Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	counter := &progressWriter{
		itemID: item.ID,
		name:   item.Name,
		path:   path,
		total:  resp.ContentLength,
	}
	if _, err := io.Copy(io.MultiWriter(file, counter), resp.Body); err != nil {
		_ = filesystem.API().Remove(path)
		return err
	}
	return nil
}

// progressWriter persists percent milestones as the body streams through.
type progressWriter struct {
	itemID  string
	name    string
	path    string
	total   int64
	written int64
	lastPct float64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total <= 0 {
		return len(p), nil
	}

	pct := util.Clamp(float64(w.written)/float64(w.total)*100, 0, 100)
	// Persisting every write would hammer the state file.
	if pct-w.lastPct >= 5 {
		w.lastPct = pct
		_ = put(&Record{ItemID: w.itemID, Name: w.name, Path: w.path, Status: StatusDownloading, Percent: pct})
	}
	return len(p), nil
}

// targetPath builds the destination path for an item's download.
func targetPath(item *source.MediaItem, container string) string {
	if container == "" {
		container = "mkv"
	}
	name := fmt.Sprintf("%s.%s", util.SanitizeFilename(item.Name), container)
	return filepath.Join(where.Downloads(), item.Dirname(), name)
}
