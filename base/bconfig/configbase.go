package bconfig

// BaseConfig contains the basic properties required from all Config types
type BaseConfig interface {
	// GetType returns the type name
	GetType() string
}
