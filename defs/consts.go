package defs

// Common labels for logging
const (
	LabelComponent = "component"
	LabelName      = "name"
	LabelPart      = "part"

	LabelDevice = "device"
	LabelSource = "source"
	LabelRemote = "remote"
)
