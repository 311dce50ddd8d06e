// Package dtcp streams chunks to a remote TCP endpoint
package dtcp

import (
	"fmt"
	"net"

	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// Config defines configuration for the TCP device
type Config struct {
	bconfig.Header `yaml:",inline"`
	Address        string `yaml:"address"` // remote host:port
}

type tcpDevice struct {
	logger        logger.Logger
	conn          *util.TimeoutConn
	writtenBytes  promext.RWCounter
	networkErrors promext.RWCounter
}

// NewDevice dials the remote endpoint; per-write deadlines guard against a stalled peer
func (cfg *Config) NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error) {
	dlogger := parentLogger.WithField(defs.LabelComponent, "TCPDevice").WithField(defs.LabelRemote, cfg.Address)

	dlogger.Infof("connecting with timeout %s", defs.DeviceConnectionTimeout)
	conn, derr := net.DialTimeout("tcp", cfg.Address, defs.DeviceConnectionTimeout)
	if derr != nil {
		return nil, fmt.Errorf("failed to connect to '%s': %w", cfg.Address, derr)
	}
	dlogger.Info("connected")

	deviceMetricCreator := metricCreator.AddOrGetPrefix("device_", []string{"device"}, []string{"tcp"})
	return &tcpDevice{
		logger:        dlogger,
		conn:          util.NewTimeoutConn(conn, 0, defs.DeviceWriteTimeout),
		writtenBytes:  deviceMetricCreator.AddOrGetCounter("written_bytes_total", "Numbers of bytes written to the device", nil, nil),
		networkErrors: deviceMetricCreator.AddOrGetCounter("network_errors_total", "Numbers of network errors on writes", nil, nil),
	}, nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	if len(cfg.Address) == 0 {
		return fmt.Errorf(".address is unspecified")
	}
	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		return fmt.Errorf(".address: %w", err)
	}
	return nil
}

func (device *tcpDevice) Write(p []byte) (int, error) {
	n, err := device.conn.Write(p)
	device.writtenBytes.Add(uint64(n))
	if err != nil && util.IsNetworkError(err) {
		device.networkErrors.Inc()
		switch {
		case util.IsNetworkTimeout(err):
			device.logger.Errorf("write timeout: %s", err.Error())
		case util.IsNetworkClosed(err):
			device.logger.Errorf("connection closed by peer: %s", err.Error())
		default:
			device.logger.Errorf("network error: %s", err.Error())
		}
	}
	return n, err
}

func (device *tcpDevice) Close() error {
	device.logger.Infof("closing: writtenBytes=%d", device.writtenBytes.Get())
	return device.conn.Close()
}

// CoalesceWrites permits merged writes; TCP is a byte stream
func (device *tcpDevice) CoalesceWrites() bool {
	return true
}
