package bconfig

// Header defines the common leading part of all *Config implementations
type Header struct {
	Type string `yaml:"type"`
}

// GetType returns the type name used for dispatch in YAML unmarshalling
func (header *Header) GetType() string {
	return header.Type
}
