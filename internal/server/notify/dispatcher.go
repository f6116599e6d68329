package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
)

// Dispatcher delivers messages on a background goroutine so callers never
// wait on SMTP. The queue is bounded; when it is full new messages are
// dropped and logged.
type Dispatcher struct {
	notifier Notifier
	logger   logging.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	done   chan struct{}
}

// NewDispatcher starts the delivery goroutine. Each send gets its own
// deadline of timeout.
func NewDispatcher(notifier Notifier, logger logging.Logger, queueSize int, timeout time.Duration) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		queue:    make(chan Message, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue schedules msg for delivery and reports whether it was accepted.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn(context.Background(), "dispatcher closed, message dropped", "template", msg.Template)
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn(context.Background(), "notification queue full, message dropped", "template", msg.Template)
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.notifier.Send(ctx, msg); err != nil {
			d.logger.Error(ctx, "failed to send email", "template", msg.Template, "error", err)
		} else {
			d.logger.Debug(ctx, "email sent", "template", msg.Template)
		}
		cancel()
	}
}

// Close stops accepting messages and waits for the queue to drain or ctx to
// end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
