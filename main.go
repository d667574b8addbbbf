// Package main is the entry point for the jellysan application.
package main

import (
	"github.com/jellysan-cli/jellysan/cmd"
	"github.com/jellysan-cli/jellysan/config"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
