package sink

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
)

// Config defines the configuration for BufferedSink
type Config struct {
	HighWaterMark  datasize.ByteSize `yaml:"highWaterMark"`  // pending-byte threshold above which Submit asks the producer to pause; 0 = defs.DefaultHighWaterMarkBytes
	CoalesceWrites bool              `yaml:"coalesceWrites"` // merge adjacent pending chunks into single device writes, on devices which permit it
}

// NewSink creates a BufferedSink on top of the given device and launches its flusher
//
// The sink assumes sole ownership of the device and closes it exactly once when the sink
// terminates, whether cleanly or on a flush error.
func (cfg Config) NewSink(parentLogger logger.Logger, device base.Device, metricCreator promreg.MetricCreator) *BufferedSink {
	highWaterMark := int64(cfg.HighWaterMark.Bytes())
	if highWaterMark == 0 {
		highWaterMark = int64(defs.DefaultHighWaterMarkBytes)
	}

	return newBufferedSink(parentLogger, device, highWaterMark,
		cfg.CoalesceWrites && base.AllowsCoalescing(device), metricCreator)
}

// VerifyConfig checks configuration
func (cfg Config) VerifyConfig() error {
	if cfg.HighWaterMark.Bytes() > uint64(defs.MaxHighWaterMarkBytes) {
		return fmt.Errorf(".highWaterMark %s exceeds the maximum %d", cfg.HighWaterMark.HumanReadable(), defs.MaxHighWaterMarkBytes)
	}
	return nil
}
