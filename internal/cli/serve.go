package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stakewake/internal/api"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	Origins []string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP",
		Long: `Serve the challenge engine over HTTP.

The caller of every request is taken from the X-Caller header. Prometheus
metrics are exposed at /metrics and a liveness probe at /health.

Example:
  stakewake serve --db ./stakewake.db --addr :8080
  STAKEWAKE_ORACLE_POLICY=rego stakewake serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http_addr)")
	cmd.Flags().StringSliceVar(&opts.Origins, "cors-origin", nil, "allowed CORS origins (default any)")

	return cmd
}

func runServer(opts *ServeOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	defer a.Close(context.Background())

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	dispatched := make(chan error, 1)
	go func() {
		dispatched <- a.dispatcher.Run(ctx)
	}()

	addr := a.cfg.HTTPAddr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	var limiter *api.RateLimiter
	if a.cfg.RateLimitRPS > 0 {
		limiter = api.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst)
	}
	server := api.New(a.engine, api.Options{
		Metrics:        a.metrics,
		Logger:         a.logger,
		Limiter:        limiter,
		AllowedOrigins: opts.Origins,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", addr)
	serveErr := server.ListenAndServe(ctx, addr)

	cancel()
	if err := <-dispatched; err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("dispatcher stopped", "error", err)
	}
	if serveErr != nil {
		return WrapExitError(ExitFailure, "server error", serveErr)
	}

	a.logger.Info("server stopped gracefully")
	return nil
}
