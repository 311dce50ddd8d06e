// Package dfile writes chunks to a local file
package dfile

import (
	"fmt"
	"os"

	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// Config defines configuration for the file device
type Config struct {
	bconfig.Header `yaml:",inline"`
	Path           string `yaml:"path"`   // target path, subject to environment variable expansion
	Append         bool   `yaml:"append"` // append to an existing file instead of truncating it
}

type fileDevice struct {
	logger       logger.Logger
	file         *os.File
	writtenBytes promext.RWCounter
}

// NewDevice opens or creates the target file for writing
func (cfg *Config) NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error) {
	path := os.ExpandEnv(cfg.Path)
	flags := os.O_CREATE | os.O_WRONLY
	if cfg.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", path, err)
	}

	dlogger := parentLogger.WithField(defs.LabelComponent, "FileDevice").WithField(defs.LabelName, path)
	dlogger.Infof("opened: append=%t", cfg.Append)

	deviceMetricCreator := metricCreator.AddOrGetPrefix("device_", []string{"device"}, []string{"file"})
	return &fileDevice{
		logger:       dlogger,
		file:         file,
		writtenBytes: deviceMetricCreator.AddOrGetCounter("written_bytes_total", "Numbers of bytes written to the device", nil, nil),
	}, nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	if len(cfg.Path) == 0 {
		return fmt.Errorf(".path is unspecified")
	}
	return nil
}

func (device *fileDevice) Write(p []byte) (int, error) {
	n, err := device.file.Write(p)
	device.writtenBytes.Add(uint64(n))
	return n, err
}

func (device *fileDevice) Close() error {
	device.logger.Infof("closing: writtenBytes=%d", device.writtenBytes.Get())
	return device.file.Close()
}

// CoalesceWrites permits merged writes; the file is a plain byte stream
func (device *fileDevice) CoalesceWrites() bool {
	return true
}
