package version

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jellysan-cli/jellysan/color"
	"github.com/jellysan-cli/jellysan/constant"
	"github.com/jellysan-cli/jellysan/icon"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/style"
	"github.com/jellysan-cli/jellysan/util"
)

// Notify prints a terminal alert if a more recent stable version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err == nil {
		comp, err := Compare(version, constant.Version)
		if err == nil && comp <= 0 {
			return
		}
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/jellysan-cli/jellysan/releases/tag/v"+version),
	)
}
