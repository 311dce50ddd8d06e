package pump

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/relex/bytesink/base"
)

var (
	errSourceBroken = errors.New("mock source broken")
	errDeviceBroken = errors.New("mock device broken")
)

// testSource yields preset chunks in order and then finalErr, or io.EOF when finalErr is
// nil
type testSource struct {
	mu        sync.Mutex
	chunks    []base.Chunk
	finalErr  error
	numCloses int
}

func (src *testSource) NextChunk() (base.Chunk, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.chunks) == 0 {
		if src.finalErr != nil {
			return nil, src.finalErr
		}
		return nil, io.EOF
	}
	chunk := src.chunks[0]
	src.chunks = src.chunks[1:]
	return chunk, nil
}

func (src *testSource) Close() error {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.numCloses++
	return nil
}

func (src *testSource) NumCloses() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.numCloses
}

// endlessSource yields the same payload until the pump is stopped
type endlessSource struct {
	mu        sync.Mutex
	numCloses int
}

func (src *endlessSource) NextChunk() (base.Chunk, error) {
	return base.Chunk("tick "), nil
}

func (src *endlessSource) Close() error {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.numCloses++
	return nil
}

// testDevice collects written chunks in memory
//
// A non-nil gate makes every Write take a token first; close the gate to let all writes
// through. A non-nil failWrite makes every Write fail.
type testDevice struct {
	gate      chan struct{}
	failWrite error
	mu        sync.Mutex
	buf       bytes.Buffer
	numWrites int
	numCloses int
}

func newTestDevice() *testDevice {
	return &testDevice{}
}

func (dev *testDevice) Write(p []byte) (int, error) {
	if dev.gate != nil {
		<-dev.gate
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.failWrite != nil {
		return 0, dev.failWrite
	}
	dev.numWrites++
	dev.buf.Write(p)
	return len(p), nil
}

func (dev *testDevice) Close() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.numCloses++
	return nil
}

func (dev *testDevice) Content() string {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.buf.String()
}

func (dev *testDevice) NumWrites() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.numWrites
}

func (dev *testDevice) NumCloses() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.numCloses
}
