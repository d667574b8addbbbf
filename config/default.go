// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/jellysan-cli/jellysan/color"
	"github.com/jellysan-cli/jellysan/constant"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Jellysan + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case float64:
		return "float64"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerURL, "", "Base URL of the media server, e.g. https://jellyfin.example.org")
	register(key.ServerUserID, "", "Server-side user id reported with playback sessions")
	register(key.ServerUsername, "", "Username used for authentication")
	register(key.ServerDeviceID, "", "Stable device identifier reported to the server.\nGenerated on first login if empty")

	register(key.PlaybackPlayer, "mpv", "Media player to use (e.g., mpv, iina)")
	register(key.PlaybackMaxQuality, "auto", "Quality cap applied before source selection.\nAvailable options are: original, auto, 1080p, 720p, 480p")
	register(key.PlaybackMaxBitrate, 120000000, "Maximum streaming bitrate in bits per second sent with playback-info requests")
	register(key.PlaybackReportInterval, 10, "Seconds between periodic progress reports while playing or paused")
	register(key.PlaybackAutoplayNext, true, "Automatically start the next queue entry when playback ends")
	register(key.PlaybackCompletionPercent, 90, "Percentage required to mark an item as watched (1-100)")
	register(key.PlaybackPreferredAudioLang, "eng", "Preferred audio track language (ISO 639-2)")
	register(key.PlaybackPreferredSubsLang, "", "Preferred subtitle track language (ISO 639-2).\nEmpty disables subtitles")

	register(key.GestureEdgeZoneWidth, 40, "Width in points of the edge zones used for ambient (brightness/volume) gestures")
	register(key.GestureInvertEdges, false, "Swap the brightness/volume edges")
	register(key.GestureDismissDistance, 120, "Downward drag distance in points past which a dismiss gesture commits")
	register(key.GestureDismissVelocity, 800, "Release velocity in points/second past which a dismiss gesture commits")
	register(key.GestureAmbientSensitivity, 0.003, "Ambient value change per point of vertical drag")

	register(key.SegmentsSkipIntro, true, "Automatically skip intro segments reported by the server")
	register(key.SegmentsSkipCredits, false, "Automatically skip credits segments reported by the server")

	register(key.DownloadsConcurrent, 2, "Maximum number of simultaneous downloads")

	register(key.HistorySaveOnWatch, true, "Save resume position to the local history on playback stop")

	register(key.SearchShowQuerySuggestions, true, "Show query suggestions when searching")
	register(key.SearchLimit, 20, "Limit of search results to show")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
