// Package run runs the actual pump agent
package run

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
)

// Run pumps with the given config file until the source ends or a stop signal arrives
//
// The returned error is the pump's terminal error, e.g. the flush error of a broken
// device, or nil after a clean run
func Run(configFile string) error {
	loader, loaderErr := NewLoaderFromConfigFile(configFile, "bytesink_")
	if loaderErr != nil {
		return loaderErr
	}

	stopRequest := channels.NewSignalAwaitable()
	pmp, launchErr := loader.LaunchPump(logger.Root(), stopRequest)
	if launchErr != nil {
		return launchErr
	}

	runLogger := logger.WithField(defs.LabelComponent, "Launcher")

	// wait for pump completion or shutdown signal
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT)
	signal.Notify(sigChan, syscall.SIGTERM)
	select {
	case s := <-sigChan:
		runLogger.Infof("received %s, shutting down", s)
		stopRequest.Signal()
		if !pmp.Stopped().Wait(defs.PumpStopTimeout) {
			return fmt.Errorf("pump not stopped after %s", defs.PumpStopTimeout)
		}
	case <-pmp.Stopped().Channel():
	}
	signal.Stop(sigChan)

	if err := pmp.Err(); err != nil {
		return err
	}
	runLogger.Info("clean exit")
	return nil
}
