// bytesink pumps chunked byte streams from a source into a buffered output device with
// backpressure
package main

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/bytesink/cmd"
	"github.com/relex/gotils/logger"
)

var version string

func main() {
	logger.Infof("version: %s", version)
	logger.Infof("GOMAXPROCS: %d", runtime.GOMAXPROCS(0))

	registerInfoMetric()

	cmd.Execute()
}

func registerInfoMetric() {
	opts := prometheus.GaugeOpts{}
	opts.Name = "bytesink_info"
	opts.Help = "bytesink application information"
	gauge := prometheus.NewGaugeVec(opts, []string{"version"})
	gauge.WithLabelValues(version).Set(1)
	prometheus.MustRegister(gauge)
}
