package player

import (
	"fmt"
	"os/exec"
	"runtime"
)

// IINA launches macOS-native IINA playback. IINA exposes no IPC socket, so
// most of the Player surface degrades to stubs; the engine falls back to
// lifecycle-only reporting when it drives this backend.
type IINA struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

func NewIINA() *IINA {
	return &IINA{
		exited: make(chan struct{}),
	}
}

func (m *IINA) Play(rawURL string, title string, startSeconds float64, headers map[string]string) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("IINA is only supported on macOS")
	}

	args := []string{"-a", "IINA"}

	// IINA forwards mpv arguments after the --args separator.
	mpvArgs := []string{fmt.Sprintf("--mpv-force-media-title=%s", sanitizeTitle(title))}
	if startSeconds > 0 {
		mpvArgs = append(mpvArgs, fmt.Sprintf("--mpv-start=%.3f", startSeconds))
	}
	if len(headers) > 0 {
		var builder string
		for k, v := range headers {
			if len(builder) > 0 {
				builder += ","
			}
			builder += fmt.Sprintf("%s: %s", k, v)
		}
		mpvArgs = append(mpvArgs, fmt.Sprintf("--mpv-http-header-fields=%s", builder))
	}

	args = append(args, "--args")
	args = append(args, mpvArgs...)
	args = append(args, rawURL)

	m.cmd = exec.Command("open", args...)
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("LaunchServices failed to invoke IINA: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()
	return nil
}

func (m *IINA) Wait() <-chan struct{} {
	return m.exited
}

// The remaining Player surface has no IPC backing on IINA.
func (m *IINA) SetPause(bool) error                { return nil }
func (m *IINA) GetTimePos() (float64, error)       { return 0, fmt.Errorf("not supported on IINA") }
func (m *IINA) GetDuration() (float64, error)      { return 0, fmt.Errorf("not supported on IINA") }
func (m *IINA) GetPausedStatus() (bool, error)     { return false, fmt.Errorf("not supported on IINA") }
func (m *IINA) Seek(float64) error                 { return nil }
func (m *IINA) SelectAudio(int) error              { return nil }
func (m *IINA) SelectSubtitle(int) error           { return nil }
func (m *IINA) GetVolume() (float64, error)        { return 0, fmt.Errorf("not supported on IINA") }
func (m *IINA) SetVolume(float64) error            { return nil }
func (m *IINA) IsRunning() bool {
	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}
func (m *IINA) Close() error {
	if m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
	}
	return nil
}
func (m *IINA) Socket() string { return "iina-native" }
