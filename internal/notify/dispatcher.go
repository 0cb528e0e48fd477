package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/ceylonix/internal/apperr"
)

// DispatcherOptions tunes queueing and retries.
type DispatcherOptions struct {
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Dispatcher delivers messages from a bounded queue on a single worker.
// Records are persisted before they are queued, so delivery failures only
// affect the notification.
type Dispatcher struct {
	sender   Sender
	queue    chan Message
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

func NewDispatcher(sender Sender, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:   sender,
		queue:    make(chan Message, opts.QueueSize),
		attempts: opts.MaxAttempts,
		delay:    opts.RetryDelay,
		logger:   logger,
	}
}

// Notify queues msg without blocking. A full queue is reported as
// apperr.ErrNotification and the message is dropped.
func (d *Dispatcher) Notify(msg Message) error {
	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Error("notify: queue full, dropping message", slog.String("subject", msg.Subject))
		return fmt.Errorf("queue full: %w", apperr.ErrNotification)
	}
}

// Run delivers queued messages until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.sender.Send(ctx, msg); err == nil {
			d.logger.Info("notify: sent", slog.String("subject", msg.Subject), slog.Int("attempt", attempt))
			return
		}
		d.logger.Warn("notify: send failed",
			slog.String("subject", msg.Subject),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt == d.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.delay * time.Duration(attempt)):
		}
	}
	d.logger.Error("notify: giving up", slog.String("subject", msg.Subject), slog.String("error", err.Error()))
}
