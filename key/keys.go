// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Server Connection - these keys identify the media server and the authenticated user.
const (
	ServerURL      = "server.url"
	ServerUserID   = "server.user_id"
	ServerUsername = "server.username"
	ServerDeviceID = "server.device_id"
)

// Playback Engine - these keys tune the playback session engine.
const (
	PlaybackPlayer             = "playback.player"
	PlaybackMaxQuality         = "playback.max_quality"
	PlaybackMaxBitrate         = "playback.max_bitrate"
	PlaybackReportInterval     = "playback.report_interval"
	PlaybackAutoplayNext       = "playback.autoplay_next"
	PlaybackCompletionPercent  = "playback.completion_percentage"
	PlaybackPreferredAudioLang = "playback.preferred_audio_language"
	PlaybackPreferredSubsLang  = "playback.preferred_subtitle_language"
)

// Gesture Arbitration - these keys configure the touch surface geometry and thresholds.
const (
	GestureEdgeZoneWidth      = "gesture.edge_zone_width"
	GestureInvertEdges        = "gesture.invert_edges"
	GestureDismissDistance    = "gesture.dismiss_distance"
	GestureDismissVelocity    = "gesture.dismiss_velocity"
	GestureAmbientSensitivity = "gesture.ambient_sensitivity"
)

// Media Segments - these keys govern automatic intro/credits skipping.
const (
	SegmentsSkipIntro   = "segments.skip_intro"
	SegmentsSkipCredits = "segments.skip_credits"
)

// Downloads - these keys configure the offline download manager.
const (
	DownloadsConcurrent = "downloads.concurrent"
)

// History Tracking - these keys configure the persistence of playback resume state.
const (
	HistorySaveOnWatch = "history.save_on_watch"
)

// Search Interaction - these keys define the UX parameters for library search.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
	SearchLimit                = "search.limit"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Diagnostics - these keys configure the logging subsystem.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Command Line Interface - these keys style the CLI itself.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
