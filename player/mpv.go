package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jellysan-cli/jellysan/constant"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/util"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV drives mpv through its JSON-IPC protocol.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the mpv process exits
	mu         sync.Mutex    // protects socket writes
}

// NewMPV creates an mpv backend. Nothing starts until Play.
func NewMPV() *MPV {
	return &MPV{
		exited: make(chan struct{}),
	}
}

// Play launches mpv against the given target. Streams get the access headers
// attached; local files play as-is.
func (m *MPV) Play(rawURL string, title string, startSeconds float64, headers map[string]string) error {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	safeTitle := sanitizeTitle(title)

	var headerString string
	if len(headers) > 0 {
		var builder strings.Builder
		for k, v := range headers {
			if builder.Len() > 0 {
				builder.WriteString(",")
			}
			// Commas delimit header fields on the mpv command line.
			builder.WriteString(fmt.Sprintf("%s: %s", k, strings.ReplaceAll(v, ",", "%2C")))
		}
		headerString = builder.String()
	}

	// os.TempDir() rather than /tmp: macOS puts $TMPDIR under /var/folders.
	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.Jellysan, randomBytes))
	}

	// Pass only the socket, title and target. No --vo, --profile or
	// --hwdec: the user's mpv.conf stays in charge of rendering.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--force-media-title=%s", safeTitle),
		fmt.Sprintf("--title=%s", safeTitle),
		"--force-window=yes",
		"--idle=yes",
	}

	if startSeconds > 0 {
		args = append(args, fmt.Sprintf("--start=%.3f", startSeconds))
	}
	if headerString != "" {
		args = append(args, fmt.Sprintf("--http-header-fields=%s", headerString))
	}
	args = append(args, safeURL)

	m.cmd = exec.Command("mpv", args...)

	// Detach from the parent process group so a shell exit cannot take
	// the player down with it.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process so it never lingers as a zombie.
	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		if m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = m.cmd.Process.Kill()
			}
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}
	return nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until the IPC socket accepts connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// GetTimePos returns the current playback position in seconds.
func (m *MPV) GetTimePos() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// GetDuration returns the duration of the current media in seconds.
func (m *MPV) GetDuration() (float64, error) {
	return m.getFloatProperty("duration")
}

// GetPausedStatus returns whether playback is currently paused.
func (m *MPV) GetPausedStatus() (bool, error) {
	data, err := m.sendCommand([]interface{}{"get_property", "pause"})
	if err != nil {
		return false, err
	}
	paused, ok := data.(bool)
	if !ok {
		return false, nil
	}
	return paused, nil
}

// Seek moves playback to the given absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand([]interface{}{"seek", seconds, "absolute"})
	return err
}

// SetPause sets the suspension state explicitly.
func (m *MPV) SetPause(paused bool) error {
	return m.set("pause", paused)
}

// SelectAudio switches the active audio track by stream index.
func (m *MPV) SelectAudio(index int) error {
	return m.set("aid", index+1)
}

// SelectSubtitle switches the active subtitle track; negative disables.
func (m *MPV) SelectSubtitle(index int) error {
	if index < 0 {
		return m.set("sid", "no")
	}
	return m.set("sid", index+1)
}

// GetVolume returns the player volume on the 0 to 1 scale.
func (m *MPV) GetVolume() (float64, error) {
	value, err := m.getFloatProperty("volume")
	if err != nil {
		return 0, err
	}
	return util.Clamp(value/100, 0, 1), nil
}

// SetVolume sets the player volume from the 0 to 1 scale.
func (m *MPV) SetVolume(value float64) error {
	return m.set("volume", util.Clamp(value, 0, 1)*100)
}

// GetBrightness returns the video brightness on the 0 to 1 scale. mpv's
// equalizer range is -100 to 100 with 0 as neutral.
func (m *MPV) GetBrightness() (float64, error) {
	value, err := m.getFloatProperty("brightness")
	if err != nil {
		return 0, err
	}
	return util.Clamp((value+100)/200, 0, 1), nil
}

// SetBrightness sets the video brightness from the 0 to 1 scale.
func (m *MPV) SetBrightness(value float64) error {
	return m.set("brightness", util.Clamp(value, 0, 1)*200-100)
}

// GetSpeed returns the playback speed multiplier.
func (m *MPV) GetSpeed() (float64, error) {
	return m.getFloatProperty("speed")
}

// SetSpeed sets the playback speed multiplier. mpv accepts 0.01 to 100.
func (m *MPV) SetSpeed(speed float64) error {
	return m.set("speed", util.Clamp(speed, 0.01, 100))
}

// SetChapters replaces the chapter list shown on the mpv timeline.
func (m *MPV) SetChapters(chapters []map[string]interface{}) error {
	return m.set("chapter-list", chapters)
}

// IsRunning reports whether mpv is responding to IPC commands.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
	}

	_, err := m.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Close shuts the mpv process down and removes the socket.
func (m *MPV) Close() error {
	if m.socketPath == "" {
		return nil
	}

	_, _ = m.sendCommand([]interface{}{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) set(property string, value interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", property, value})
	return err
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	value, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return value, nil
}

// sanitizeMediaTarget validates that a target is safe to pass to mpv and
// cannot be mistaken for a flag.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Local file path.
	return filepath.Clean(l), nil
}

// sanitizeTitle strips characters that would break the mpv command line.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
