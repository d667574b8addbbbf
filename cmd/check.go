// Package cmd implements the command-line interface for jellysan.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/jellysan-cli/jellysan/color"
	"github.com/jellysan-cli/jellysan/constant"
	"github.com/jellysan-cli/jellysan/icon"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

// CheckDependencies verifies the availability of the configured playback backend.
func CheckDependencies() {
	backend := viper.GetString(key.PlaybackPlayer)
	if backend == "iina" {
		// IINA is launched via `open -a`, not from PATH.
		if runtime.GOOS != constant.Darwin {
			printMissingDependencyError("iina (macOS only)")
			os.Exit(1)
		}
		return
	}

	if _, err := exec.LookPath("mpv"); err != nil {
		printMissingDependencyError("mpv")
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install mpv"
	case "linux":
		installCmd = "sudo apt install mpv" // Generic, maybe check distro
	case "windows":
		installCmd = "scoop install mpv"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep)

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.HiGreen).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
