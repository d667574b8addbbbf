package session

import (
	"context"
	"time"

	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/log"
)

// Reporter receives the lifecycle reports of a playback session. Reporting is
// best-effort: implementations must not block playback on server failures.
type Reporter interface {
	Start(s *PlaySession)
	Progress(s *PlaySession, positionTicks int64, paused bool)
	Stop(s *PlaySession, positionTicks int64)
}

// reportTimeout bounds a single report round-trip so a slow server cannot
// stall the engine's report ordering.
const reportTimeout = 10 * time.Second

// ServerReporter forwards session reports to the media server. Failed reports
// are logged and dropped, never retried.
type ServerReporter struct {
	client *jellyfin.Client
}

// NewServerReporter creates a reporter backed by the given server client.
func NewServerReporter(client *jellyfin.Client) *ServerReporter {
	return &ServerReporter{client: client}
}

func (r *ServerReporter) Start(s *PlaySession) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := r.client.ReportStart(ctx, s.Report(0, false)); err != nil {
		log.Warnf("start report for session %s dropped: %v", s.ID, err)
	}
}

func (r *ServerReporter) Progress(s *PlaySession, positionTicks int64, paused bool) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := r.client.ReportProgress(ctx, s.Report(positionTicks, paused)); err != nil {
		log.Warnf("progress report for session %s dropped: %v", s.ID, err)
	}
}

func (r *ServerReporter) Stop(s *PlaySession, positionTicks int64) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := r.client.ReportStopped(ctx, s.Report(positionTicks, false)); err != nil {
		log.Warnf("stop report for session %s dropped: %v", s.ID, err)
	}
}

// NopReporter discards all reports. Used for purely local playback.
type NopReporter struct{}

func (NopReporter) Start(*PlaySession)                 {}
func (NopReporter) Progress(*PlaySession, int64, bool) {}
func (NopReporter) Stop(*PlaySession, int64)           {}
