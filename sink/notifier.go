package sink

import (
	"sync"

	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
)

// drainNotifier delivers drain callbacks on its own goroutine so they never run inside
// the flusher's write path and never block it
//
// Notifications are delivered in the order they were queued; callbacks within one
// notification run sequentially.
type drainNotifier struct {
	logger  logger.Logger
	mu      sync.Mutex
	queue   []drainNotification
	ended   bool
	wake    chan struct{}
	stopped *channels.SignalAwaitable
}

type drainNotification struct {
	callbacks []func(error)
	err       error
}

func newDrainNotifier(parentLogger logger.Logger) *drainNotifier {
	return &drainNotifier{
		logger:  parentLogger.WithField(defs.LabelPart, "DrainNotifier"),
		wake:    make(chan struct{}, 1),
		stopped: channels.NewSignalAwaitable(),
	}
}

func (notifier *drainNotifier) Launch() {
	go notifier.run()
}

// Notify queues callbacks to be invoked with the given error. Never blocks.
func (notifier *drainNotifier) Notify(callbacks []func(error), err error) {
	if len(callbacks) == 0 {
		return
	}
	notifier.mu.Lock()
	notifier.queue = append(notifier.queue, drainNotification{callbacks: callbacks, err: err})
	notifier.mu.Unlock()
	notifier.signal()
}

// End stops the notifier once everything queued so far has been delivered
func (notifier *drainNotifier) End() {
	notifier.mu.Lock()
	notifier.ended = true
	notifier.mu.Unlock()
	notifier.signal()
}

// Stopped returns an Awaitable signaled after the final callback has been delivered
func (notifier *drainNotifier) Stopped() channels.Awaitable {
	return notifier.stopped
}

func (notifier *drainNotifier) signal() {
	select {
	case notifier.wake <- struct{}{}:
	default:
	}
}

func (notifier *drainNotifier) run() {
	defer notifier.stopped.Signal()
	numDelivered := 0
	for {
		notifier.mu.Lock()
		batch := notifier.queue
		notifier.queue = nil
		ended := notifier.ended
		notifier.mu.Unlock()

		for _, notification := range batch {
			for _, callback := range notification.callbacks {
				callback(notification.err)
				numDelivered++
			}
		}

		if ended {
			notifier.mu.Lock()
			remaining := len(notifier.queue)
			notifier.mu.Unlock()
			if remaining == 0 {
				notifier.logger.Debugf("ended after %d callbacks", numDelivered)
				return
			}
			continue
		}
		<-notifier.wake
	}
}
