package cmd

import (
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/test"
)

type benchmarkCommandState struct {
	ChunkCount int    `help:"Numbers of chunks to generate"`
	ChunkSize  string `help:"Size of each generated chunk, e.g. 4KB"`
	Output     string `help:"Output override:\n'': (empty) write to the configured device\n'null': abandon all output\nfile path, e.g. /tmp/bench.out"`
	Repeat     int    `help:"Repeat times"`
	Config     string `help:"Configuration file path"`
}

var benchCmd = benchmarkCommandState{
	ChunkCount: 100000,
	ChunkSize:  "4KB",
	Output:     "null",
	Repeat:     5,
	Config:     "testdata/config_sample.yml",
}

func (cmd *benchmarkCommandState) runBenchmarkSinkCommand(_ []string) {
	defs.EnableTestMode()
	test.RunBenchmarkSink(cmd.ChunkCount, cmd.ChunkSize, cmd.Output, cmd.Repeat, cmd.Config)
}
