package sink

import (
	"bytes"
	"errors"
	"sync"
)

var errDeviceBroken = errors.New("mock device broken")
var errDeviceCloseBroken = errors.New("mock device close broken")

// mockDevice is an in-memory Device with controllable write pacing and failures
//
// gate must be assigned before the device is handed to a sink: each Write then takes one
// token from it, so tests can hold flushes in flight or release them one by one;
// closing the gate releases all writes.
type mockDevice struct {
	gate        chan struct{}
	canCoalesce bool
	discard     bool
	maxWriteLen int // accept at most this many bytes per call when > 0, reporting a short write
	failAtWrite int // fail every write call starting from the Nth when > 0
	failClose   bool

	mu          sync.Mutex
	buf         bytes.Buffer
	numWrites   int
	numBytes    int
	numCloses   int
}

func newMockDevice() *mockDevice {
	return &mockDevice{}
}

func (dev *mockDevice) Write(p []byte) (int, error) {
	if dev.gate != nil {
		<-dev.gate
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.numWrites++
	if dev.failAtWrite > 0 && dev.numWrites >= dev.failAtWrite {
		return 0, errDeviceBroken
	}
	accepted := len(p)
	if dev.maxWriteLen > 0 && accepted > dev.maxWriteLen {
		accepted = dev.maxWriteLen
	}
	if !dev.discard {
		dev.buf.Write(p[:accepted])
	}
	dev.numBytes += accepted
	return accepted, nil
}

func (dev *mockDevice) Close() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.numCloses++
	if dev.failClose {
		return errDeviceCloseBroken
	}
	return nil
}

func (dev *mockDevice) CoalesceWrites() bool {
	return dev.canCoalesce
}

func (dev *mockDevice) Content() string {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.buf.String()
}

func (dev *mockDevice) NumWrites() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.numWrites
}

func (dev *mockDevice) NumBytes() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.numBytes
}

func (dev *mockDevice) NumCloses() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.numCloses
}
