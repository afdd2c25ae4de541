package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stakewake/internal/config"
	"github.com/roach88/stakewake/internal/custody"
	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/metrics"
	"github.com/roach88/stakewake/internal/oracle"
	"github.com/roach88/stakewake/internal/store"
)

// app is everything one command invocation needs, built from config and
// global flags.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	engine     *engine.Engine
	metrics    *metrics.Collector
	dispatcher *engine.Dispatcher
	clock      engine.Clock
	out        *OutputFormatter
}

// openApp loads config, opens the database and builds the engine. The
// caller must Close the returned app.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	ctx := commandContext(cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg, opts.Verbose)

	cal, err := ir.NewCalendar(cfg.DayBoundary)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid day_boundary", err)
	}
	gate, err := newGate(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build oracle gate", err)
	}

	var clock engine.Clock = engine.SystemClock{}
	if opts.At != "" {
		at, err := time.Parse(time.RFC3339, opts.At)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --at", err)
		}
		clock = engine.FixedClock{At: at}
	}

	logger.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	m := metrics.New()
	d := engine.NewDispatcher(logger, m, engine.LogSubscriber{Logger: logger})

	eng := engine.New(st,
		engine.WithClock(clock),
		engine.WithCalendar(cal),
		engine.WithGate(gate),
		engine.WithCustodian(custody.NewVault(logger)),
		engine.WithReceiptGenerator(custody.DerivedReceipts{}),
		engine.WithDispatcher(d),
		engine.WithLogger(logger),
		engine.WithAdmin(cfg.Admin),
		engine.WithOracle(cfg.OracleIdentity()),
		engine.WithMaxDurationDays(cfg.MaxDurationDays),
		engine.WithWakeDeadline(cfg.EnforceWakeDeadline),
	)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		engine:     eng,
		metrics:    m,
		dispatcher: d,
		clock:      clock,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// Close delivers queued events and closes the database.
func (a *app) Close(ctx context.Context) {
	if n := a.dispatcher.Flush(ctx); n > 0 {
		a.logger.Debug("delivered events", "count", n)
	}
	a.dispatcher.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	defer a.Close(ctx)
	return fn(ctx, a)
}

// newLogger configures slog from log_level and log_format. --verbose
// forces debug.
func newLogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// newGate builds the oracle gate named by oracle_policy.
func newGate(ctx context.Context, cfg *config.Config) (oracle.Gate, error) {
	switch cfg.OraclePolicy {
	case config.PolicyAllowList:
		return oracle.NewAllowListGate(cfg.OracleAllowListEntries()...), nil
	case config.PolicyRego:
		if cfg.OraclePolicyFile == "" {
			return oracle.NewRegoGate(ctx, oracle.DefaultPolicy)
		}
		return oracle.LoadRegoGate(ctx, cfg.OraclePolicyFile)
	case config.PolicyAddress, "":
		return oracle.AddressGate{}, nil
	default:
		return nil, fmt.Errorf("unknown oracle policy %q", cfg.OraclePolicy)
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
