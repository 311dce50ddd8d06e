// Package dgzip compresses chunks with gzip on their way to an inner device
package dgzip

import (
	"fmt"

	"github.com/klauspost/compress/gzip"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// Config defines configuration for the gzip device
type Config struct {
	bconfig.Header `yaml:",inline"`
	Level          string                     `yaml:"level"`  // compression level name: fastest (default), default or best
	Target         bconfig.DeviceConfigHolder `yaml:"target"` // the inner device receiving the compressed stream
}

var compressionLevels = map[string]int{
	"":        gzip.BestSpeed,
	"fastest": gzip.BestSpeed,
	"default": gzip.DefaultCompression,
	"best":    gzip.BestCompression,
}

type gzipDevice struct {
	logger       logger.Logger
	inner        base.Device
	writer       *gzip.Writer
	writtenBytes promext.RWCounter
}

// NewDevice opens the inner device and wraps it in a gzip stream
func (cfg *Config) NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error) {
	inner, err := cfg.Target.Value.NewDevice(parentLogger, metricCreator)
	if err != nil {
		return nil, err
	}

	writer, gerr := gzip.NewWriterLevel(inner, compressionLevels[cfg.Level])
	if gerr != nil {
		_ = inner.Close()
		return nil, fmt.Errorf("failed to initialize gzip writer: %w", gerr)
	}

	deviceMetricCreator := metricCreator.AddOrGetPrefix("device_", []string{"device"}, []string{"gzip"})
	return &gzipDevice{
		logger:       parentLogger.WithField(defs.LabelComponent, "GzipDevice"),
		inner:        inner,
		writer:       writer,
		writtenBytes: deviceMetricCreator.AddOrGetCounter("written_bytes_total", "Numbers of bytes written to the device, before compression", nil, nil),
	}, nil
}

// VerifyConfig checks configuration including the nested target device
func (cfg *Config) VerifyConfig() error {
	if _, ok := compressionLevels[cfg.Level]; !ok {
		return fmt.Errorf(".level: unsupported '%s'", cfg.Level)
	}
	if cfg.Target.Value == nil {
		return fmt.Errorf(".target is unspecified")
	}
	if err := cfg.Target.Value.VerifyConfig(); err != nil {
		return fmt.Errorf(".target%w", err)
	}
	return nil
}

func (device *gzipDevice) Write(p []byte) (int, error) {
	n, err := device.writer.Write(p)
	device.writtenBytes.Add(uint64(n))
	return n, err
}

// Close flushes and ends the gzip stream, then closes the inner device
func (device *gzipDevice) Close() error {
	device.logger.Infof("closing: writtenBytes=%d", device.writtenBytes.Get())
	gerr := device.writer.Close()
	cerr := device.inner.Close()
	if gerr != nil {
		return gerr
	}
	return cerr
}

// CoalesceWrites permits merged writes; chunk boundaries do not survive compression anyway
func (device *gzipDevice) CoalesceWrites() bool {
	return true
}
