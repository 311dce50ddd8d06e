// Package dnull discards chunks while counting them, for benchmarks and tests
package dnull

import (
	"github.com/puzpuzpuz/xsync"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// Config defines configuration for the null device
type Config struct {
	bconfig.Header `yaml:",inline"`
}

// NullDevice accepts and discards all writes
//
// Counting uses striped counters cheap enough for the benchmark hot path; totals are
// flushed to Prometheus counters once, on Close.
type NullDevice struct {
	logger        logger.Logger
	numWrites     *xsync.Counter
	numBytes      *xsync.Counter
	writtenBytes  promext.RWCounter
	writtenWrites promext.RWCounter
}

// NewDevice creates a null device
func (cfg *Config) NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error) {
	deviceMetricCreator := metricCreator.AddOrGetPrefix("device_", []string{"device"}, []string{"null"})
	return &NullDevice{
		logger:        parentLogger.WithField(defs.LabelComponent, "NullDevice"),
		numWrites:     xsync.NewCounter(),
		numBytes:      xsync.NewCounter(),
		writtenBytes:  deviceMetricCreator.AddOrGetCounter("written_bytes_total", "Numbers of bytes written to the device", nil, nil),
		writtenWrites: deviceMetricCreator.AddOrGetCounter("written_writes_total", "Numbers of write calls accepted by the device", nil, nil),
	}, nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	return nil
}

func (device *NullDevice) Write(p []byte) (int, error) {
	device.numWrites.Inc()
	device.numBytes.Add(int64(len(p)))
	return len(p), nil
}

func (device *NullDevice) Close() error {
	device.writtenBytes.Add(uint64(device.numBytes.Value()))
	device.writtenWrites.Add(uint64(device.numWrites.Value()))
	device.logger.Infof("closing: writes=%d bytes=%d", device.numWrites.Value(), device.numBytes.Value())
	return nil
}

// CoalesceWrites permits merged writes; nothing is kept anyway
func (device *NullDevice) CoalesceWrites() bool {
	return true
}

// NumWrites returns the numbers of write calls accepted so far
func (device *NullDevice) NumWrites() int64 {
	return device.numWrites.Value()
}

// NumBytes returns the total size written so far
func (device *NullDevice) NumBytes() int64 {
	return device.numBytes.Value()
}
