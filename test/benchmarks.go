package test

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/device/dfile"
	"github.com/relex/bytesink/device/dnull"
	"github.com/relex/bytesink/run"
	"github.com/relex/bytesink/source/ssynth"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

type benchmarkMetric struct {
	fmt string
	val float64
}

// RunBenchmarkSink benchmarks pumping synthetic chunks through a buffered sink
//
// The source section of the config file is replaced by a synthetic generator; the device
// section may be overridden by outputPath: "null" to discard everything, a file path to
// write there, or empty to keep the configured device. Each repetition pumps the full
// chunk count through a freshly opened chain.
func RunBenchmarkSink(chunkCount int, chunkSize string, outputPath string, repeat int, configFile string) {
	size, sizeErr := datasize.ParseString(chunkSize)
	if sizeErr != nil {
		logger.Fatalf("invalid chunk size '%s': %s", chunkSize, sizeErr.Error())
	}

	config, configErr := run.ParseConfigFile(configFile)
	if configErr != nil {
		logger.Fatal(configErr)
	}
	config.Source.Value = &ssynth.Config{Count: chunkCount, Size: size}
	overrideOutputDevice(config, outputPath)

	mfactory := promreg.NewMetricFactory("benchsink_", nil, nil)
	loader := &run.Loader{
		Config:        *config,
		MetricFactory: mfactory,
	}

	maxPendingBytes := int64(0)
	costTracker := StartCostTracking()
	for i := 0; i < repeat; i++ {
		pmp, launchErr := loader.LaunchPump(logger.Root(), channels.NewSignalAwaitable())
		if launchErr != nil {
			logger.Fatal(launchErr)
		}
		pmp.Stopped().WaitForever()
		if err := pmp.Err(); err != nil {
			logger.Fatalf("run %d: %s", i, err.Error())
		}
		if pending := pmp.Sink().MaxPendingBytes(); pending > maxPendingBytes {
			maxPendingBytes = pending
		}
	}
	report := costTracker.Report()

	totalChunks := chunkCount * repeat
	totalBytes := int64(chunkCount) * int64(size.Bytes()) * int64(repeat)
	verifyBenchmarkSinkResult(config, mfactory, totalBytes, maxPendingBytes, int64(size.Bytes()))
	reportBenchmarkResult("BenchmarkSink", totalChunks, totalBytes, maxPendingBytes, report)
	logger.Info(promext.DumpMetrics("", true, true, mfactory))
}

func overrideOutputDevice(config *run.Config, outputPath string) {
	switch outputPath {
	case "":
		// keep the configured device
	case "null":
		config.Device.Value = &dnull.Config{}
	default:
		config.Device.Value = &dfile.Config{Path: outputPath}
	}
}

func verifyBenchmarkSinkResult(config *run.Config, mfactory *promreg.MetricFactory,
	totalBytes int64, maxPendingBytes int64, chunkBytes int64) {

	flushedBytes := mfactory.AddOrGetPrefix("sink_", nil, nil).AddOrGetCounter("flushed_bytes_total", "", nil, nil).Get()
	if int64(flushedBytes) != totalBytes {
		logger.Errorf("numbers of flushed bytes don't match: %d, should be %d", flushedBytes, totalBytes)
	}

	highWaterMark := int64(config.Sink.HighWaterMark.Bytes())
	if highWaterMark == 0 {
		highWaterMark = int64(defs.DefaultHighWaterMarkBytes)
	}
	if maxPendingBytes > highWaterMark+chunkBytes {
		logger.Errorf("max pending bytes %d exceeds high water mark %d plus one chunk %d",
			maxPendingBytes, highWaterMark, chunkBytes)
	}
}

func reportBenchmarkResult(title string, numChunks int, sizeOfChunks int64, maxPendingBytes int64, report CostReport) {
	metrics := []benchmarkMetric{
		{fmt: "%.0f chunk/sec", val: float64(numChunks) / report.RealTime.Seconds()},
		{fmt: "%.0f MB/sec", val: float64(sizeOfChunks) / 1048576 / report.RealTime.Seconds()},
		{fmt: "%0.2f alloc/chunk", val: float64(report.NumHeapAllocs) / float64(numChunks)},
		{fmt: "%0.2f%% user", val: 100.0 * report.UserTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% sys", val: 100.0 * report.SystemTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% gc", val: 100.0 * report.GCCPUFraction},
		{fmt: "%.02f sec", val: report.RealTime.Seconds()},
		{fmt: "%.0f KB max pending", val: float64(maxPendingBytes) / 1024.0},
		{fmt: "%.0f MB total", val: float64(sizeOfChunks) / 1048576},
	}
	printBenchmarkMetrics(title, metrics)
}

func printBenchmarkMetrics(title string, metrics []benchmarkMetric) {
	sb := make([]byte, 0, 200)
	sb = append(sb, fmt.Sprintf("%s:", title)...)
	for _, m := range metrics {
		sb = append(sb, fmt.Sprintf("\t"+m.fmt, m.val)...)
	}
	fmt.Println(string(sb))
}
