// Package pump drives chunks from a source into a buffered sink, cooperating with the
// sink's backpressure signal
package pump

import (
	"errors"
	"fmt"
	"io"

	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/sink"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
)

// Pump reads chunks from a source and submits them to a sink until the source ends, the
// stop request is signaled or the sink terminates
//
// When a submit reports the sink above its high water mark, the pump pauses reading until
// the drain notification. On exit the pump always closes the sink, which flushes whatever
// is still pending, and then records the terminal error, readable via Err once Stopped is
// signaled.
type Pump struct {
	logger      logger.Logger
	source      base.ChunkSource
	sink        *sink.BufferedSink
	stopRequest channels.Awaitable
	stopped     *channels.SignalAwaitable
	metrics     pumpMetrics
	err         error
}

// NewPump creates a pump; Launch starts it
func NewPump(parentLogger logger.Logger, source base.ChunkSource, bufferedSink *sink.BufferedSink,
	metricCreator promreg.MetricCreator, stopRequest channels.Awaitable) *Pump {

	return &Pump{
		logger:      parentLogger.WithField(defs.LabelComponent, "Pump"),
		source:      source,
		sink:        bufferedSink,
		stopRequest: stopRequest,
		stopped:     channels.NewSignalAwaitable(),
		metrics:     newPumpMetrics(metricCreator),
	}
}

// Launch starts the pump loop in background
func (pump *Pump) Launch() {
	go pump.run()
}

// Stopped returns an Awaitable signaled after the sink has fully terminated
func (pump *Pump) Stopped() channels.Awaitable {
	return pump.stopped
}

// Err returns the terminal error, valid once Stopped is signaled: nil after a clean run,
// a source read error, or the sink's *base.FlushError
func (pump *Pump) Err() error {
	return pump.err
}

// Sink returns the sink the pump submits to
func (pump *Pump) Sink() *sink.BufferedSink {
	return pump.sink
}

func (pump *Pump) run() {
	defer pump.stopped.Signal()
	pump.logger.Info("started")

	perr := pump.pumpChunks()
	if cerr := pump.source.Close(); cerr != nil {
		pump.logger.Warnf("error closing source: %s", cerr.Error())
	}

	// closing the sink flushes all still pending chunks before the device is closed
	serr := pump.sink.Close()

	pump.err = perr
	if serr != nil && (perr == nil || errors.Is(perr, base.ErrSinkClosed)) {
		// the sink's own flush error explains a rejected submit better than ErrSinkClosed
		pump.err = serr
	}
	if pump.err != nil {
		pump.logger.Errorf("stopped on error: %s", pump.err.Error())
	} else {
		pump.logger.Info("stopped")
	}
}

func (pump *Pump) pumpChunks() error {
	for {
		if pump.stopRequest.Peek() {
			pump.logger.Info("stop requested")
			return nil
		}

		chunk, rerr := pump.source.NextChunk()
		switch {
		case rerr == io.EOF:
			pump.logger.Info("source end reached")
			return nil
		case rerr != nil:
			pump.metrics.OnSourceError()
			return fmt.Errorf("failed to read source: %w", rerr)
		}

		hasRoom, serr := pump.sink.Submit(chunk)
		if serr != nil {
			return serr
		}
		pump.metrics.OnRead(len(chunk))
		if hasRoom {
			continue
		}
		if !pump.waitDrained() {
			pump.logger.Info("stop requested during backpressure wait")
			return nil
		}
	}
}

// waitDrained pauses until the sink reports drained, returning false if the stop request
// arrived first
func (pump *Pump) waitDrained() bool {
	pump.metrics.OnBackpressureWait()

	drained := make(chan error, 1)
	pump.sink.OnDrained(func(err error) {
		drained <- err
	})
	// re-probe after registration: the crossing may have happened in between, in which
	// case no further notification would come while the pump has stopped submitting
	if hasRoom, _ := pump.sink.Submit(nil); hasRoom {
		return true
	}

	select {
	case <-drained:
		// a terminal error here surfaces on the next submit
		return true
	case <-pump.stopRequest.Channel():
		return false
	}
}
