package base

import (
	"io"
)

// Device represents the output endpoint of a sink, e.g. a file, a remote stream or a
// wrapper on top of another device
//
// Write must handle calls in issue order and may write partially; the flusher retries
// with the remainder until a chunk is fully written. Close flushes anything outstanding
// and releases the endpoint. A device is driven by a single flusher goroutine and
// doesn't need to support concurrent use.
type Device interface {
	io.Writer
	io.Closer
}

// Coalescer is an optional Device extension to permit merging of adjacent chunks into
// single Write calls
//
// Byte-stream devices should return true. Record-oriented devices whose Write boundaries
// carry meaning must not implement it or must return false.
type Coalescer interface {
	CoalesceWrites() bool
}

// AllowsCoalescing checks whether the device permits merging of adjacent chunk writes
func AllowsCoalescing(device Device) bool {
	coalescer, ok := device.(Coalescer)
	return ok && coalescer.CoalesceWrites()
}
