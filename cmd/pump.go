package cmd

import (
	"context"
	"net/http"

	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/run"
	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/logger"
)

type pumpCommandState struct {
	Config      string `help:"Configuration file path"`
	MetricsAddr string `help:"The listener address to expose Prometheus metrics and debug information, empty to disable"`
	TestMode    bool   `help:"Use test mode config: short timeouts"`
}

var pumpCmd = pumpCommandState{
	Config:      "config.yml",
	MetricsAddr: ":9340",
	TestMode:    false,
}

func (cmd *pumpCommandState) run(args []string) {
	if cmd.TestMode {
		defs.EnableTestMode()
	}

	var msrv *http.Server
	if cmd.MetricsAddr != "" {
		msrv = util.LaunchMetricsListener(cmd.MetricsAddr)
	}

	pumpErr := run.Run(cmd.Config)

	if msrv != nil {
		if err := msrv.Shutdown(context.Background()); err != nil {
			logger.Errorf("error shutting down metrics listener: %v", err)
		}
	}

	if pumpErr != nil {
		logger.Fatalf("pump failed: %s", pumpErr.Error())
	}
}
