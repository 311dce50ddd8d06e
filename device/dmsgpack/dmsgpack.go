// Package dmsgpack frames every chunk as a messagepack binary record on an inner device
//
// The resulting stream is a sequence of top-level bin values, one per accepted write,
// decodable with any messagepack reader. Since each write becomes one record, the device
// does not permit write coalescing: merged chunks would collapse record boundaries.
package dmsgpack

import (
	"fmt"

	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/vmihailenco/msgpack/v4"
)

// Config defines configuration for the msgpack device
type Config struct {
	bconfig.Header `yaml:",inline"`
	Target         bconfig.DeviceConfigHolder `yaml:"target"` // the inner device receiving the record stream
}

type msgpackDevice struct {
	logger       logger.Logger
	inner        base.Device
	encoder      *msgpack.Encoder
	writtenBytes promext.RWCounter
	records      promext.RWCounter
}

// NewDevice opens the inner device and prepares a messagepack encoder on it
func (cfg *Config) NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error) {
	inner, err := cfg.Target.Value.NewDevice(parentLogger, metricCreator)
	if err != nil {
		return nil, err
	}

	deviceMetricCreator := metricCreator.AddOrGetPrefix("device_", []string{"device"}, []string{"msgpack"})
	return &msgpackDevice{
		logger:       parentLogger.WithField(defs.LabelComponent, "MsgpackDevice"),
		inner:        inner,
		encoder:      msgpack.NewEncoder(inner),
		writtenBytes: deviceMetricCreator.AddOrGetCounter("written_bytes_total", "Numbers of payload bytes written to the device, excluding record framing", nil, nil),
		records:      deviceMetricCreator.AddOrGetCounter("written_records_total", "Numbers of records framed onto the inner device", nil, nil),
	}, nil
}

// VerifyConfig checks configuration including the nested target device
func (cfg *Config) VerifyConfig() error {
	if cfg.Target.Value == nil {
		return fmt.Errorf(".target is unspecified")
	}
	if err := cfg.Target.Value.VerifyConfig(); err != nil {
		return fmt.Errorf(".target%w", err)
	}
	return nil
}

func (device *msgpackDevice) Write(p []byte) (int, error) {
	if err := device.encoder.EncodeBytes(p); err != nil {
		return 0, err
	}
	device.writtenBytes.Add(uint64(len(p)))
	device.records.Inc()
	return len(p), nil
}

func (device *msgpackDevice) Close() error {
	device.logger.Infof("closing: records=%d payloadBytes=%d", device.records.Get(), device.writtenBytes.Get())
	return device.inner.Close()
}
