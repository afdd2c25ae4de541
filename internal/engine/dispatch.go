package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/stakewake/internal/ir"
)

// Subscriber receives committed events.
type Subscriber interface {
	HandleEvent(ctx context.Context, e ir.Event) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, e ir.Event) error

// HandleEvent calls f.
func (f SubscriberFunc) HandleEvent(ctx context.Context, e ir.Event) error {
	return f(ctx, e)
}

// Dispatcher delivers committed events to subscribers in log order.
//
// The engine publishes only after its transaction commits, so subscribers
// never observe an event that was rolled back. Delivery happens either in a
// Run loop (long-lived processes) or synchronously through Flush (CLI,
// tests).
//
// ERROR HANDLING: a subscriber error is logged and delivery continues.
// Subscribers are observers; they cannot undo a committed operation.
type Dispatcher struct {
	queue     *eventQueue
	subs      []Subscriber
	logger    *slog.Logger
	delivered atomic.Int64
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger, subs ...Subscriber) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:  newEventQueue(),
		subs:   subs,
		logger: logger,
	}
}

// Publish enqueues events for delivery. Safe from any goroutine.
// Returns false if the dispatcher has been closed.
func (d *Dispatcher) Publish(events ...ir.Event) bool {
	for _, e := range events {
		if !d.queue.Enqueue(e) {
			return false
		}
	}
	return true
}

// Run delivers events until ctx is cancelled or Close is called. After
// Close, events already queued are delivered before Run returns.
//
// Must be called from exactly one goroutine.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("dispatcher starting", "subscribers", len(d.subs))

	for {
		if e, ok := d.queue.TryDequeue(); ok {
			d.deliver(ctx, e)
			continue
		}

		if d.queue.Closed() {
			d.logger.Debug("dispatcher stopping: queue closed")
			return nil
		}

		select {
		case <-ctx.Done():
			d.logger.Debug("dispatcher stopping: context cancelled")
			d.queue.Close()
			return ctx.Err()
		case <-d.queue.Wait():
		}
	}
}

// Flush delivers every queued event on the calling goroutine and returns how
// many were delivered. Do not mix Flush with a running Run loop.
func (d *Dispatcher) Flush(ctx context.Context) int {
	n := 0
	for {
		e, ok := d.queue.TryDequeue()
		if !ok {
			return n
		}
		d.deliver(ctx, e)
		n++
	}
}

// Close stops accepting events. A running Run loop drains and returns.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Delivered returns the number of events handed to subscribers so far.
func (d *Dispatcher) Delivered() int64 {
	return d.delivered.Load()
}

func (d *Dispatcher) deliver(ctx context.Context, e ir.Event) {
	for _, s := range d.subs {
		if err := s.HandleEvent(ctx, e); err != nil {
			d.logger.Error("subscriber failed",
				"seq", e.Seq,
				"kind", e.Kind,
				"challenge_id", e.ChallengeID,
				"error", err,
			)
		}
	}
	d.delivered.Add(1)
}

// LogSubscriber writes one structured log line per event.
type LogSubscriber struct {
	Logger *slog.Logger
}

// HandleEvent implements Subscriber.
func (l LogSubscriber) HandleEvent(_ context.Context, e ir.Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("event",
		"seq", e.Seq,
		"kind", e.Kind,
		"mode", e.Mode,
		"challenge_id", e.ChallengeID,
		"actor", e.Actor,
	)
	return nil
}
