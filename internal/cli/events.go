package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stakewake/internal/ir"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After     int64
	Limit     int
	Challenge int64
	Social    bool
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event log",
		Long: `Print the append-only event log in commit order.

Example:
  stakewake events --after 10 --limit 20
  stakewake events --challenge 3 --social`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				var events []ir.Event
				var err error
				if cmd.Flags().Changed("challenge") {
					mode := ir.ModePersonal
					if opts.Social {
						mode = ir.ModeSocial
					}
					events, err = a.engine.ChallengeEvents(ctx, mode, opts.Challenge)
				} else {
					events, err = a.engine.Events(ctx, opts.After, opts.Limit)
				}
				if err != nil {
					return a.out.Fail(err)
				}
				if events == nil {
					events = []ir.Event{}
				}
				return a.out.Render(events, func(w io.Writer) { writeEvents(w, events) })
			})
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with a larger seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 = all)")
	cmd.Flags().Int64Var(&opts.Challenge, "challenge", 0, "only events of this challenge")
	cmd.Flags().BoolVar(&opts.Social, "social", false, "with --challenge, select a social challenge")

	return cmd
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Recompute the ledger and check the journal and event log",
		Long: `Recompute every ledger entry from challenges and the transfer journal,
check that every settled challenge has its transfers, and re-hash every
event.

Exit codes:
  0 - Everything is consistent
  1 - Problems were found
  2 - Command error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				report, err := a.engine.Audit(ctx)
				if err != nil {
					return a.out.Fail(err)
				}
				if err := a.out.Render(report, func(w io.Writer) { writeAudit(w, report) }); err != nil {
					return err
				}
				if !report.Clean() {
					n := len(report.Problems) + len(report.LedgerDrift)
					return NewExitError(ExitFailure, fmt.Sprintf("audit found %d problem(s)", n))
				}
				return nil
			})
		},
	}
}
