package sink

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// sinkMetrics defines the metrics of one BufferedSink
type sinkMetrics struct {
	pendingChunks        promext.RWGauge // current numbers of chunks accepted but not yet confirmed flushed
	pendingBytes         promext.RWGauge // current total size of pending chunks
	submittedChunksTotal promext.RWCounter
	submittedBytesTotal  promext.RWCounter
	rejectedSubmitsTotal promext.RWCounter // submits rejected after close or termination
	flushedChunksTotal   promext.RWCounter
	flushedBytesTotal    promext.RWCounter
	flushedWritesTotal   promext.RWCounter // numbers of device write calls, fewer than flushed chunks when coalescing
	drainSignalsTotal    promext.RWCounter // numbers of above-to-below crossings of the high water mark
	flushErrorsTotal     promext.RWCounter
}

func newSinkMetrics(metricCreator promreg.MetricCreator) sinkMetrics {
	sinkMetricCreator := metricCreator.AddOrGetPrefix("sink_", nil, nil)

	metrics := sinkMetrics{
		pendingChunks:        sinkMetricCreator.AddOrGetGauge("pending_chunks", "Numbers of currently pending chunks", nil, nil),
		pendingBytes:         sinkMetricCreator.AddOrGetGauge("pending_bytes", "Total size in bytes of currently pending chunks", nil, nil),
		submittedChunksTotal: sinkMetricCreator.AddOrGetCounter("submitted_chunks_total", "Numbers of accepted chunks", nil, nil),
		submittedBytesTotal:  sinkMetricCreator.AddOrGetCounter("submitted_bytes_total", "Total size in bytes of accepted chunks", nil, nil),
		rejectedSubmitsTotal: sinkMetricCreator.AddOrGetCounter("rejected_submits_total", "Numbers of submits rejected due to closing", nil, nil),
		flushedChunksTotal:   sinkMetricCreator.AddOrGetCounter("flushed_chunks_total", "Numbers of chunks confirmed flushed to the device", nil, nil),
		flushedBytesTotal:    sinkMetricCreator.AddOrGetCounter("flushed_bytes_total", "Total size in bytes of flushed chunks", nil, nil),
		flushedWritesTotal:   sinkMetricCreator.AddOrGetCounter("flushed_writes_total", "Numbers of device write calls issued for flushing", nil, nil),
		drainSignalsTotal:    sinkMetricCreator.AddOrGetCounter("drain_signals_total", "Numbers of drain crossings back to or below the high water mark", nil, nil),
		flushErrorsTotal:     sinkMetricCreator.AddOrGetCounter("flush_errors_total", "Numbers of device write or close failures", nil, nil),
	}
	// reset gauges in case metricCreator is reused, e.g. repeated benchmark runs
	metrics.pendingChunks.Set(0)
	metrics.pendingBytes.Set(0)

	return metrics
}

func (metrics *sinkMetrics) OnSubmitted(length int) {
	metrics.pendingChunks.Inc()
	metrics.pendingBytes.Add(int64(length))
	metrics.submittedChunksTotal.Inc()
	metrics.submittedBytesTotal.Add(uint64(length))
}

func (metrics *sinkMetrics) OnRejected() {
	metrics.rejectedSubmitsTotal.Inc()
}

func (metrics *sinkMetrics) OnFlushed(numChunks int, length int) {
	metrics.pendingChunks.Sub(int64(numChunks))
	metrics.pendingBytes.Sub(int64(length))
	metrics.flushedChunksTotal.Add(uint64(numChunks))
	metrics.flushedBytesTotal.Add(uint64(length))
	metrics.flushedWritesTotal.Inc()
}

func (metrics *sinkMetrics) OnDrainSignal() {
	metrics.drainSignalsTotal.Inc()
}

func (metrics *sinkMetrics) OnFlushError() {
	metrics.flushErrorsTotal.Inc()
}

func (metrics *sinkMetrics) OnTerminated(numDroppedChunks int, droppedBytes int64) {
	metrics.pendingChunks.Sub(int64(numDroppedChunks))
	metrics.pendingBytes.Sub(droppedBytes)
}
