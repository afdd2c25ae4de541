package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/custody"
	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/oracle"
	"github.com/roach88/stakewake/internal/store"
)

// DefaultMaxDurationDays bounds challenge length unless overridden.
const DefaultMaxDurationDays = 365

// DefaultAdmin is the admin identity when none is configured.
const DefaultAdmin ir.Identity = "admin"

// secondsPerDay is the length of one challenge day.
const secondsPerDay = 86400

// Engine is the single authoritative challenge state machine.
//
// Thread-safety: all methods are safe for concurrent use; operations are
// serialized by an internal mutex and each runs in one store transaction.
type Engine struct {
	mu sync.Mutex

	store      *store.Store
	clock      Clock
	calendar   ir.Calendar
	gate       oracle.Gate
	custodian  custody.Custodian
	receipts   custody.ReceiptGenerator
	dispatcher *Dispatcher
	logger     *slog.Logger

	admin           ir.Identity
	defaultOracle   ir.Identity
	maxDurationDays int
	enforceDeadline bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithCalendar sets the day boundary. Default: days start at 00:00 UTC.
func WithCalendar(c ir.Calendar) Option {
	return func(e *Engine) {
		e.calendar = c
	}
}

// WithGate sets the oracle gate for social confirmations.
// Default: oracle.AddressGate.
func WithGate(g oracle.Gate) Option {
	return func(e *Engine) {
		e.gate = g
	}
}

// WithCustodian sets where settlement transfers go.
// Default: an in-memory custody.Vault.
func WithCustodian(c custody.Custodian) Option {
	return func(e *Engine) {
		e.custodian = c
	}
}

// WithReceiptGenerator sets the receipt id source.
// Default: custody.DerivedReceipts.
func WithReceiptGenerator(g custody.ReceiptGenerator) Option {
	return func(e *Engine) {
		e.receipts = g
	}
}

// WithDispatcher publishes committed events to d.
func WithDispatcher(d *Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithAdmin sets the identity allowed to rotate the oracle.
func WithAdmin(id string) Option {
	return func(e *Engine) {
		e.admin = ir.NormalizeIdentity(id)
	}
}

// WithOracle sets the oracle used until the admin first rotates it.
// Default: the admin.
func WithOracle(id string) Option {
	return func(e *Engine) {
		e.defaultOracle = ir.NormalizeIdentity(id)
	}
}

// WithMaxDurationDays bounds challenge length.
//
// Default: 365 days (DefaultMaxDurationDays)
func WithMaxDurationDays(n int) Option {
	return func(e *Engine) {
		e.maxDurationDays = n
	}
}

// WithWakeDeadline rejects confirmations made after the day's wake-up time
// with ErrCodeMissedDeadline, and creations made after that time on the
// start day, whose first day could never be confirmed. Default: off.
func WithWakeDeadline(on bool) Option {
	return func(e *Engine) {
		e.enforceDeadline = on
	}
}

// New creates an Engine over s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		clock:           SystemClock{},
		gate:            oracle.AddressGate{},
		receipts:        custody.DerivedReceipts{},
		admin:           DefaultAdmin,
		maxDurationDays: DefaultMaxDurationDays,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.custodian == nil {
		e.custodian = custody.NewVault(e.logger)
	}
	if e.defaultOracle.IsZero() {
		e.defaultOracle = e.admin
	}

	return e
}

// Calendar returns the engine's day calendar.
func (e *Engine) Calendar() ir.Calendar {
	return e.calendar
}

// MaxDurationDays returns the longest allowed challenge.
func (e *Engine) MaxDurationDays() int {
	return e.maxDurationDays
}

// Ping checks that the store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// op is the state of one engine operation.
type op struct {
	tx     *store.Tx
	now    time.Time
	events []ir.Event
}

// emit appends an event to the log inside the operation's transaction.
func (o *op) emit(ctx context.Context, e ir.Event) error {
	e.At = o.now
	stored, err := o.tx.AppendEvent(ctx, e)
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.Kind, err)
	}
	o.events = append(o.events, stored)
	return nil
}

// run executes fn as one serialized, transactional operation and publishes
// its events after commit.
func (e *Engine) run(ctx context.Context, name string, fn func(ctx context.Context, o *op) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o := &op{now: e.clock.Now().UTC().Truncate(time.Second)}
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		o.tx = tx
		return fn(ctx, o)
	})
	if err != nil {
		var ee *Error
		if errors.As(err, &ee) {
			e.logger.Debug("operation rejected", "op", name, "code", ee.Code, "message", ee.Message)
		} else {
			e.logger.Error("operation failed", "op", name, "error", err)
		}
		return err
	}

	if e.dispatcher != nil && len(o.events) > 0 {
		if !e.dispatcher.Publish(o.events...) {
			e.logger.Warn("dispatcher closed; events not delivered", "op", name, "events", len(o.events))
		}
	}
	return nil
}

// view runs fn against a read-only snapshot.
func (e *Engine) view(ctx context.Context, fn func(tx *store.Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.View(ctx, fn)
}

// requireCaller normalizes a caller identity and rejects empty ones.
func requireCaller(raw ir.Identity) (ir.Identity, error) {
	id := ir.NormalizeIdentity(string(raw))
	if id.IsZero() {
		return "", newError(ErrCodeUnauthorized, "Caller identity required")
	}
	return id, nil
}

// validateTerms checks the terms shared by personal and social challenges.
func (e *Engine) validateTerms(deposit decimal.Decimal, wakeUpTime int64, days int) error {
	if !ir.ValidDeposit(deposit) {
		return newError(ErrCodeInvalidAmount, "Deposit must be greater than 0 with at most %d decimals", ir.MaxAmountScale)
	}
	if days < 1 || days > e.maxDurationDays {
		return newError(ErrCodeInvalidDuration, "Invalid duration")
	}
	if wakeUpTime < 0 || wakeUpTime >= secondsPerDay {
		return newError(ErrCodeInvalidWakeUpTime, "Wake-up time must be between 0 and %d seconds", secondsPerDay-1)
	}
	return nil
}

func endTime(start time.Time, days int) time.Time {
	return start.Add(time.Duration(days) * secondsPerDay * time.Second)
}
