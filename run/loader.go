package run

import (
	"fmt"

	"github.com/relex/bytesink/pump"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
)

// Loader loads configuration from file and prepares the pump chain to be launched
//
// Loader should take care of everything derived from the config file, but not trigger
// anything automatically
type Loader struct {
	filepath string // config file path

	Config
	MetricFactory *promreg.MetricFactory
}

// NewLoaderFromConfigFile loads and verifies the config file
func NewLoaderFromConfigFile(filepath string, metricPrefix string) (*Loader, error) {
	config, configErr := ParseConfigFile(filepath)
	if configErr != nil {
		return nil, configErr
	}

	return &Loader{
		filepath: filepath,

		Config:        *config,
		MetricFactory: promreg.NewMetricFactory(metricPrefix, nil, nil),
	}, nil
}

// LaunchPump opens the configured device and source, builds a sink on the device and
// starts a pump in background
//
// The pump owns everything opened here; the source, sink and device are all closed by
// the time its Stopped is signaled
func (loader *Loader) LaunchPump(plogger logger.Logger, stopRequest channels.Awaitable) (*pump.Pump, error) {
	dev, derr := loader.Device.Value.NewDevice(plogger, loader.MetricFactory)
	if derr != nil {
		return nil, fmt.Errorf("device: %w", derr)
	}

	src, serr := loader.Source.Value.NewSource(plogger)
	if serr != nil {
		if cerr := dev.Close(); cerr != nil {
			plogger.Warnf("error closing device: %s", cerr.Error())
		}
		return nil, fmt.Errorf("source: %w", serr)
	}

	bsink := loader.Sink.NewSink(plogger, dev, loader.MetricFactory)
	pmp := pump.NewPump(plogger, src, bsink, loader.MetricFactory, stopRequest)
	pmp.Launch()
	return pmp, nil
}

// GetMetricQuerier exposes the metrics created from this loader, e.g. for dumps in tests
func (loader *Loader) GetMetricQuerier() promreg.MetricQuerier {
	return loader.MetricFactory
}
