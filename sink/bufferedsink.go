// Package sink provides BufferedSink, a bounded-memory buffer between a chunk producer
// and a slower output device.
//
// A sink accepts chunks without ever blocking the producer: Submit appends to an internal
// queue and reports whether the queue is still at or below the configured high water mark.
// Once the mark is exceeded, a cooperating producer pauses and registers an OnDrained
// callback to learn when the pending total has fallen back to the mark. A background
// flusher writes queued chunks to the device strictly in submission order and may merge
// adjacent chunks into one write call on devices which permit it.
//
// The queue is bounded only through producer cooperation: a producer which ignores the
// Submit result can grow it without limit, tracked by the pending_bytes gauge.
package sink

import (
	"io"
	"sync"

	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
)

type sinkState int

const (
	stateOpen     sinkState = iota // accepting submits, pending total at or below the high water mark
	stateDraining                  // accepting submits, pending total above the high water mark
	stateClosing                   // Close initiated, rejecting submits, flusher draining the remainder
	stateClosed                    // everything flushed or dropped on error, device closed
)

// coalesceBuffers recycles scratch buffers for merged device writes
var coalesceBuffers = util.NewBytesPoolBy2n()

// BufferedSink queues submitted chunks and flushes them to a Device in the background
//
// Submit, OnDrained and Close may be called from any goroutine. The device itself is
// only ever driven by the sink's single flusher goroutine and is closed exactly once,
// when the sink terminates.
type BufferedSink struct {
	logger        logger.Logger
	device        base.Device
	highWaterMark int64
	coalesce      bool
	notifier      *drainNotifier

	mu              sync.Mutex
	state           sinkState
	pending         []base.Chunk // ordered queue of chunks not yet confirmed flushed
	pendingBytes    int64        // sum of pending chunk sizes, decremented only on confirmed flush
	maxPendingBytes int64        // highest observed pendingBytes, the memory proxy for benchmarks
	drainWaiters    []func(error)
	flushErr        *base.FlushError

	wake           chan struct{} // wakes the idle flusher after a submit, capacity 1
	closeRequested *channels.SignalAwaitable
	closed         *channels.SignalAwaitable
	metrics        sinkMetrics
}

func newBufferedSink(parentLogger logger.Logger, device base.Device, highWaterMark int64, coalesce bool,
	metricCreator promreg.MetricCreator) *BufferedSink {

	slogger := parentLogger.WithField(defs.LabelComponent, "BufferedSink")

	sink := &BufferedSink{
		logger:         slogger,
		device:         device,
		highWaterMark:  highWaterMark,
		coalesce:       coalesce,
		notifier:       newDrainNotifier(slogger),
		pending:        make([]base.Chunk, 0, 64),
		wake:           make(chan struct{}, 1),
		closeRequested: channels.NewSignalAwaitable(),
		closed:         channels.NewSignalAwaitable(),
		metrics:        newSinkMetrics(metricCreator),
	}
	sink.notifier.Launch()
	go sink.runFlusher()

	slogger.Infof("created: highWaterMark=%d coalesce=%t", highWaterMark, coalesce)
	return sink
}

// Submit queues a chunk for flushing and never blocks
//
// The boolean result is the capacity signal: true while the pending total stays at or
// below the high water mark, false once it exceeds the mark, in which case the producer
// should stop submitting and register OnDrained to learn when to resume. The chunk is
// queued either way; bounding memory is the cooperating producer's side of the contract.
//
// Ownership of the chunk transfers to the sink on acceptance. Empty chunks are not
// queued and only report the current capacity signal.
//
// Returns base.ErrSinkClosed once Close has been called or the sink has terminated on a
// flush error, regardless of in-flight flushes.
func (sink *BufferedSink) Submit(chunk base.Chunk) (bool, error) {
	sink.mu.Lock()
	if sink.state >= stateClosing {
		sink.mu.Unlock()
		sink.metrics.OnRejected()
		return false, base.ErrSinkClosed
	}

	if len(chunk) == 0 {
		hasRoom := sink.pendingBytes <= sink.highWaterMark
		sink.mu.Unlock()
		return hasRoom, nil
	}

	sink.pending = append(sink.pending, chunk)
	sink.pendingBytes += int64(len(chunk))
	if sink.pendingBytes > sink.maxPendingBytes {
		sink.maxPendingBytes = sink.pendingBytes
	}
	hasRoom := sink.pendingBytes <= sink.highWaterMark
	if !hasRoom {
		sink.state = stateDraining
	}
	sink.mu.Unlock()

	sink.metrics.OnSubmitted(len(chunk))

	// a wake token already in the channel is enough for any number of submits
	select {
	case sink.wake <- struct{}{}:
	default:
	}
	return hasRoom, nil
}

// OnDrained registers a one-shot callback for the next drain crossing, i.e. the next time
// the pending total falls from above the high water mark back to at or below it after a
// confirmed flush
//
// Callbacks queue in registration order and are invoked sequentially with a nil error on
// a dedicated goroutine, never inside the flusher's write path. If the sink terminates
// with callbacks still queued, each is invoked once with the terminal error instead:
// the recorded flush error, or base.ErrSinkClosed after a clean close. Registering on an
// already terminated sink fires the callback immediately with the same terminal error.
func (sink *BufferedSink) OnDrained(callback func(error)) {
	sink.mu.Lock()
	if sink.state == stateClosed {
		err := sink.terminalErrorLocked()
		sink.mu.Unlock()
		go callback(err)
		return
	}
	sink.drainWaiters = append(sink.drainWaiters, callback)
	sink.mu.Unlock()
}

// Close rejects further submits, flushes all pending chunks in submission order, closes
// the device and waits for the sink to terminate
//
// Close is idempotent and safe to call concurrently: every caller blocks until the sink
// is terminated and receives the same result, nil or the recorded *base.FlushError from
// a failed device write or close. A flush error is terminal: remaining chunks are
// dropped, no further writes are attempted and the device is still closed exactly once.
func (sink *BufferedSink) Close() error {
	sink.mu.Lock()
	requested := sink.state < stateClosing
	if requested {
		sink.state = stateClosing
	}
	sink.mu.Unlock()

	if requested {
		sink.logger.Info("close requested")
		sink.closeRequested.Signal()
	}
	sink.closed.WaitForever()
	return sink.Err()
}

// Closed returns an Awaitable signaled once the sink has terminated: all pending chunks
// flushed (or dropped on a flush error) and the device closed
func (sink *BufferedSink) Closed() channels.Awaitable {
	return sink.closed
}

// Err returns the recorded terminal *base.FlushError, or nil if the sink is still
// running or has closed cleanly
func (sink *BufferedSink) Err() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.flushErr != nil {
		return sink.flushErr
	}
	return nil
}

// PendingBytes returns the current total size of chunks not yet confirmed flushed
func (sink *BufferedSink) PendingBytes() int64 {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.pendingBytes
}

// MaxPendingBytes returns the highest pending total observed so far; with a cooperating
// producer it stays bounded by the high water mark plus one chunk
func (sink *BufferedSink) MaxPendingBytes() int64 {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.maxPendingBytes
}

// terminalErrorLocked resolves the error for drain waiters on a terminated sink
func (sink *BufferedSink) terminalErrorLocked() error {
	if sink.flushErr != nil {
		return sink.flushErr
	}
	return base.ErrSinkClosed
}

func (sink *BufferedSink) runFlusher() {
	sink.logger.Info("start flush loop")
	for {
		data, numChunks, scratch := sink.nextBatch()
		if numChunks == 0 {
			if sink.closeRequested.Peek() {
				sink.logger.Info("end flush loop on close request")
				sink.finish(nil)
				return
			}
			select {
			case <-sink.wake:
			case <-sink.closeRequested.Channel():
			}
			continue
		}

		numBytes := len(data)
		werr := sink.writeWithRetry(data)
		if scratch != nil {
			coalesceBuffers.Put(scratch)
		}
		if werr != nil {
			sink.metrics.OnFlushError()
			sink.logger.Errorf("end flush loop on write failure: %s", werr.Error())
			sink.finish(werr)
			return
		}

		sink.completeFlush(numChunks, int64(numBytes))
	}
}

// nextBatch picks the head chunk to flush, or, when coalescing, the longest run of
// adjacent pending chunks within defs.MaxCoalescedWriteBytes merged into one pooled
// scratch buffer. The picked chunks stay in the queue and keep counting as pending
// until the write is confirmed.
func (sink *BufferedSink) nextBatch() (data []byte, numChunks int, scratch *[]byte) {
	sink.mu.Lock()
	if len(sink.pending) == 0 {
		sink.mu.Unlock()
		return nil, 0, nil
	}
	if !sink.coalesce || len(sink.pending) == 1 {
		head := sink.pending[0]
		sink.mu.Unlock()
		return head, 1, nil
	}

	total := 0
	count := 0
	for _, chunk := range sink.pending {
		if count > 0 && total+len(chunk) > defs.MaxCoalescedWriteBytes {
			break
		}
		total += len(chunk)
		count++
	}
	batch := sink.pending[:count]
	sink.mu.Unlock()

	if count == 1 {
		return batch[0], 1, nil
	}

	// merging happens outside the lock: the flusher is the only remover and accepted
	// chunks are immutable, so the snapshot stays valid while submits keep appending
	buf := coalesceBuffers.Get(total)
	merged := (*buf)[:0]
	for _, chunk := range batch {
		merged = append(merged, chunk...)
	}
	return merged, count, buf
}

// writeWithRetry writes data to the device, retrying the unwritten remainder after
// partial writes until the whole batch is accepted
func (sink *BufferedSink) writeWithRetry(data []byte) error {
	for offset := 0; offset < len(data); {
		written, err := sink.device.Write(data[offset:])
		offset += written
		if err != nil {
			return err
		}
		if written == 0 && offset < len(data) {
			return io.ErrNoProgress
		}
	}
	return nil
}

// completeFlush removes confirmed chunks from the queue, decrements the pending total
// and hands queued drain callbacks to the notifier on a crossing back to or below the
// high water mark
func (sink *BufferedSink) completeFlush(numChunks int, numBytes int64) {
	var drained []func(error)

	sink.mu.Lock()
	wasAbove := sink.pendingBytes > sink.highWaterMark
	for i := 0; i < numChunks; i++ {
		sink.pending[i] = nil // release chunk memory held by the backing array
	}
	sink.pending = sink.pending[numChunks:]
	sink.pendingBytes -= numBytes
	crossed := wasAbove && sink.pendingBytes <= sink.highWaterMark
	if crossed {
		if sink.state == stateDraining {
			sink.state = stateOpen
		}
		drained = sink.drainWaiters
		sink.drainWaiters = nil
	}
	sink.mu.Unlock()

	sink.metrics.OnFlushed(numChunks, int(numBytes))
	if crossed {
		sink.metrics.OnDrainSignal()
		sink.notifier.Notify(drained, nil)
	}
}

// finish closes the device and terminates the sink, recording writeErr or a close
// failure as the terminal flush error. Runs exactly once, on the flusher goroutine.
func (sink *BufferedSink) finish(writeErr error) {
	var flushErr *base.FlushError
	if writeErr != nil {
		flushErr = base.NewFlushError("write", writeErr)
	}

	if cerr := sink.device.Close(); cerr != nil {
		if flushErr == nil {
			sink.metrics.OnFlushError()
			flushErr = base.NewFlushError("close", cerr)
			sink.logger.Errorf("device close failed: %s", cerr.Error())
		} else {
			sink.logger.Warnf("device close failed after write failure: %s", cerr.Error())
		}
	}

	sink.mu.Lock()
	numDropped := len(sink.pending)
	droppedBytes := sink.pendingBytes
	sink.pending = nil
	sink.pendingBytes = 0
	sink.flushErr = flushErr
	sink.state = stateClosed
	waiters := sink.drainWaiters
	sink.drainWaiters = nil
	terminalErr := sink.terminalErrorLocked()
	sink.mu.Unlock()

	if numDropped > 0 {
		sink.metrics.OnTerminated(numDropped, droppedBytes)
		sink.logger.Warnf("dropped pending chunks on termination: count=%d bytes=%d", numDropped, droppedBytes)
	}

	sink.notifier.Notify(waiters, terminalErr)
	sink.notifier.End()
	sink.closed.Signal()
	sink.logger.Info("stopped")
}
