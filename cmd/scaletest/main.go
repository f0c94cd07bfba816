package main

import (
	"os"

	"github.com/mesosphere/marathon-scaletest/cmd/scaletest/cmd"
	"github.com/mesosphere/marathon-scaletest/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
