package bconfig

import (
	"github.com/relex/bytesink/base"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
)

// DeviceConfig provides an interface for the configuration of output devices
//
// All the implementations should support YAML unmarshalling with a leading "type"
// property. A config may be used to open any number of devices.
type DeviceConfig interface {
	BaseConfig

	// NewDevice opens a device ready to accept writes
	NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error)

	// VerifyConfig checks the configuration at loading stage, before anything is opened
	VerifyConfig() error
}

// DeviceConfigHolder holds DeviceConfig
type DeviceConfigHolder = ConfigHolder[DeviceConfig]

// DeviceConfigCreatorTable defines the table of constructors for DeviceConfig implementations
type DeviceConfigCreatorTable = ConfigCreatorTable[DeviceConfig]
