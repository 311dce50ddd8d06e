package defs

import (
	"time"
)

var (
	// DefaultHighWaterMarkBytes defines the default high water mark of a buffered sink
	//
	// Submits that push the pending total above the mark ask the producer to pause until drained
	DefaultHighWaterMarkBytes = 16 * 1024

	// MaxHighWaterMarkBytes caps the configurable high water mark
	//
	// The mark bounds buffered memory per sink; anything above the cap is near certainly a typo
	// in byte-size units
	MaxHighWaterMarkBytes = 1 * 1024 * 1024 * 1024

	// MaxCoalescedWriteBytes defines the maximum size of a single coalesced device write
	//
	// Coalescing merges adjacent pending chunks into one write call on devices that permit it;
	// the cap bounds scratch buffer size when a producer keeps submitting above the high water mark
	MaxCoalescedWriteBytes = 1 * 1024 * 1024

	// DefaultSourceChunkBytes defines the default chunk size for file and stdin sources
	//
	// Larger chunks reduce submit and write call overhead but delay backpressure feedback
	DefaultSourceChunkBytes = 64 * 1024

	// SpoolMaxSegmentsPerScan is the max numbers of existing segment files examined when a spool
	// device resumes numbering in a non-empty directory
	SpoolMaxSegmentsPerScan = 1000000
)

var (
	// DeviceConnectionTimeout is for establishing a TCP connection to a remote device
	DeviceConnectionTimeout = 60 * time.Second

	// DeviceWriteTimeout is how long a single device write may stall before it fails
	//
	// Applied per write call by the connection wrapper; local file devices have no timeout
	DeviceWriteTimeout = 60 * time.Second

	// PumpStopTimeout is the duration to wait for a pump to drain and close its sink at shutdown
	//
	// The timeout isn't supposed to be reached and indicates a stuck device if it is
	PumpStopTimeout = 30 * time.Second
)

// EnableTestMode turns on test mode with very short timeouts
func EnableTestMode() {
	DeviceConnectionTimeout = 1 * time.Second
	DeviceWriteTimeout = 3 * time.Second
	PumpStopTimeout = 5 * time.Second
}
