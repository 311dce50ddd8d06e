package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/relex/gotils/logger"
)

type rootCommandState struct {
	CPUProfile string `name:"cpuprofile" help:"Write CPU profile to file."`
	MemProfile string `name:"memprofile" help:"Write memory profile to file."`
	Trace      string `help:"Write trace to file."`

	stopFuncs []func()
}

var rootCmd rootCommandState

func (cmd *rootCommandState) preRun() {
	if cmd.CPUProfile != "" {
		f := mustCreateOutput(cmd.CPUProfile, "CPU profile")
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatalf("failed to start CPU profiling: %s", err.Error())
		}
		logger.Infof("started CPU profiling to %s", cmd.CPUProfile)
		cmd.stopFuncs = append(cmd.stopFuncs, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if cmd.MemProfile != "" {
		f := mustCreateOutput(cmd.MemProfile, "memory profile")
		logger.Infof("memory profile will be written to %s", cmd.MemProfile)
		cmd.stopFuncs = append(cmd.stopFuncs, func() {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Errorf("failed to write memory profile: %s", err.Error())
			}
			f.Close()
		})
	}

	if cmd.Trace != "" {
		f := mustCreateOutput(cmd.Trace, "trace")
		if err := trace.Start(f); err != nil {
			logger.Fatalf("failed to start tracing: %s", err.Error())
		}
		logger.Infof("started tracing to %s", cmd.Trace)
		cmd.stopFuncs = append(cmd.stopFuncs, func() {
			trace.Stop()
			f.Close()
		})
	}
}

func (cmd *rootCommandState) postRun() {
	for i := len(cmd.stopFuncs) - 1; i >= 0; i-- {
		cmd.stopFuncs[i]()
	}
	cmd.stopFuncs = nil
}

func mustCreateOutput(path string, what string) *os.File {
	f, err := os.Create(path)
	if err != nil {
		logger.Fatalf("failed to create %s %s: %s", what, path, err.Error())
	}
	return f
}
