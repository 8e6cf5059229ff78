package mail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// ErrQueueFull is returned by Dispatcher.Send when the message was dropped.
var ErrQueueFull = errors.New("mail queue full")

// ErrDispatcherClosed is returned by Send after Close.
var ErrDispatcherClosed = errors.New("mail dispatcher closed")

const defaultSendTimeout = 30 * time.Second

// Dispatcher queues messages and hands them to the wrapped Sender from a
// single worker goroutine. Send never blocks: a full queue drops the message.
// Delivery failures are logged and not retried.
type Dispatcher struct {
	sender      Sender
	logger      logging.Logger
	sendTimeout time.Duration

	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	// mu orders Send against Close: no enqueue can land after the drain
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewDispatcher(sender Sender, logger logging.Logger, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}

	d := &Dispatcher{
		sender:      sender,
		logger:      logger.With("module", "mail"),
		sendTimeout: defaultSendTimeout,
		ch:          make(chan Message, bufferSize),
		done:        make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.deliver(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.failed.Add(1)
		d.logger.Error(ctx, "email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.logger.Debug(ctx, "email delivered", "to", msg.To, "subject", msg.Subject)
}

// Send enqueues msg for delivery.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.ch <- msg:
		return nil
	default:
		d.dropped.Add(1)
		d.logger.Warn(ctx, "email dropped, queue full", "to", msg.To, "subject", msg.Subject)
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for the queued ones to be
// delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }
