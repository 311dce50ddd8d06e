package pump

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

type pumpMetrics struct {
	readChunksTotal        promext.RWCounter
	readBytesTotal         promext.RWCounter
	backpressureWaitsTotal promext.RWCounter
	sourceErrorsTotal      promext.RWCounter
}

func newPumpMetrics(metricCreator promreg.MetricCreator) pumpMetrics {
	creator := metricCreator.AddOrGetPrefix("pump_", nil, nil)
	return pumpMetrics{
		readChunksTotal:        creator.AddOrGetCounter("read_chunks_total", "Numbers of chunks read from the source", nil, nil),
		readBytesTotal:         creator.AddOrGetCounter("read_bytes_total", "Numbers of bytes read from the source", nil, nil),
		backpressureWaitsTotal: creator.AddOrGetCounter("backpressure_waits_total", "Numbers of pauses due to sink backpressure", nil, nil),
		sourceErrorsTotal:      creator.AddOrGetCounter("source_errors_total", "Numbers of source read errors", nil, nil),
	}
}

func (metrics *pumpMetrics) OnRead(numBytes int) {
	metrics.readChunksTotal.Inc()
	metrics.readBytesTotal.Add(uint64(numBytes))
}

func (metrics *pumpMetrics) OnBackpressureWait() {
	metrics.backpressureWaitsTotal.Inc()
}

func (metrics *pumpMetrics) OnSourceError() {
	metrics.sourceErrorsTotal.Inc()
}
