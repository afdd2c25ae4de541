package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stakewake/internal/ir"
)

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [identity]",
		Short: "Show ledger totals for an identity (defaults to --as)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := targetIdentity(rootOpts, args)
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				entry, err := a.engine.Profile(ctx, who)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Render(entry, func(w io.Writer) { writeLedger(w, entry) })
			})
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [identity]",
		Short: "Summarize the personal challenges of an identity (defaults to --as)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := targetIdentity(rootOpts, args)
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				stats, err := a.engine.Stats(ctx, who)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Render(stats, func(w io.Writer) { writeStats(w, stats) })
			})
		},
	}
}

// oracleView is the JSON shape of the oracle commands.
type oracleView struct {
	Oracle ir.Identity `json:"oracle"`
}

// NewOracleCommand creates the oracle command group.
func NewOracleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Show or rotate the trusted oracle",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current oracle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				return a.renderOracle(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <identity>",
		Short: "Replace the oracle (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.engine.SetOracleAddress(ctx, ir.Identity(rootOpts.As), ir.Identity(args[0])); err != nil {
					return a.out.Fail(err)
				}
				return a.renderOracle(ctx)
			})
		},
	})

	return cmd
}

func (a *app) renderOracle(ctx context.Context) error {
	current, err := a.engine.Oracle(ctx)
	if err != nil {
		return a.out.Fail(err)
	}
	view := oracleView{Oracle: current}
	return a.out.Render(view, func(w io.Writer) {
		fmt.Fprintf(w, "Oracle: %s\n", view.Oracle)
	})
}
