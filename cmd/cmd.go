// Package cmd provides the list of commands including self-benchmarks and tools
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "bytesink pumps chunked byte streams into buffered output devices", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("pump ...", "Pump from the configured source until it ends or SIGTERM", &pumpCmd, pumpCmd.run)
	config.AddCmdWithArgs("benchmark <type> ...", "Run benchmark of specified type", &benchCmd, nil)
	config.AddCmdWithArgs("benchmark sink ...", "Benchmark sink throughput with null, file or configured output", nil, benchCmd.runBenchmarkSinkCommand)
}

// Execute parses the command line and runs the specified command
func Execute() {
	// trigger init

	config.Execute()
}
