package run

import (
	"fmt"

	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/device"
	"github.com/relex/bytesink/sink"
	"github.com/relex/bytesink/source"
	"github.com/relex/bytesink/util"
)

// Config defines the root of a bytesink config file
type Config struct {
	Source bconfig.SourceConfigHolder `yaml:"source"`
	Sink   sink.Config                `yaml:"sink"`
	Device bconfig.DeviceConfigHolder `yaml:"device"`
}

func init() {
	device.Register()
	source.Register()
}

// ParseConfigFile loads config from the path and verifies all sections
func ParseConfigFile(filepath string) (*Config, error) {
	cref := newConfigWithDefaults()
	if err := util.UnmarshalYamlFile(filepath, cref); err != nil {
		return nil, err
	}
	return cref, verifyConfig(cref)
}

// ParseConfigString loads config from a YAML document and verifies all sections
func ParseConfigString(contents string) (*Config, error) {
	cref := newConfigWithDefaults()
	if err := util.UnmarshalYamlString(contents, cref); err != nil {
		return nil, err
	}
	return cref, verifyConfig(cref)
}

func newConfigWithDefaults() *Config {
	return &Config{
		Sink: sink.Config{CoalesceWrites: true},
	}
}

func verifyConfig(cref *Config) error {
	if cref.Source.Value == nil {
		return fmt.Errorf("source is unspecified")
	}
	if err := cref.Source.Value.VerifyConfig(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := cref.Sink.VerifyConfig(); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if cref.Device.Value == nil {
		return fmt.Errorf("device is unspecified")
	}
	if err := cref.Device.Value.VerifyConfig(); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	return nil
}
