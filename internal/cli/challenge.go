package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
)

// termsFlags are the challenge terms shared by create and create-social.
type termsFlags struct {
	Deposit string
	Wake    string
	Days    int
	Value   string
}

func (f *termsFlags) register(cmd *cobra.Command, depositFlag, depositHelp string) {
	cmd.Flags().StringVar(&f.Deposit, depositFlag, "", depositHelp)
	cmd.Flags().StringVar(&f.Wake, "wake", "", "wake-up time as HH:MM or seconds after the day boundary")
	cmd.Flags().IntVar(&f.Days, "days", 0, "challenge length in days")
	cmd.Flags().StringVar(&f.Value, "value", "", "attached value (defaults to the required deposit)")
	_ = cmd.MarkFlagRequired(depositFlag)
	_ = cmd.MarkFlagRequired("wake")
	_ = cmd.MarkFlagRequired("days")
}

// parse returns the deposit, wake-up time and the attached value, which
// defaults to deposit times n.
func (f *termsFlags) parse(n int64) (decimal.Decimal, int64, decimal.Decimal, error) {
	deposit, err := decimal.NewFromString(f.Deposit)
	if err != nil {
		return decimal.Zero, 0, decimal.Zero, WrapExitError(ExitCommandError, "invalid deposit", err)
	}
	wake, err := ParseWakeTime(f.Wake)
	if err != nil {
		return decimal.Zero, 0, decimal.Zero, WrapExitError(ExitCommandError, "invalid --wake", err)
	}
	attached := deposit.Mul(decimal.NewFromInt(n))
	if f.Value != "" {
		attached, err = decimal.NewFromString(f.Value)
		if err != nil {
			return decimal.Zero, 0, decimal.Zero, WrapExitError(ExitCommandError, "invalid --value", err)
		}
	}
	return deposit, wake, attached, nil
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	terms := &termsFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Lock a deposit and start a personal challenge",
		Long: `Lock a deposit and start a personal challenge today.

The challenge succeeds if every one of its days is confirmed; the deposit
is then returned. Otherwise it is burned.

Example:
  stakewake create --as 0xalice --deposit 0.1 --wake 07:00 --days 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deposit, wake, attached, err := terms.parse(1)
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				c, err := a.engine.Create(ctx, engine.CreateRequest{
					Owner:        ir.Identity(rootOpts.As),
					Deposit:      deposit,
					WakeUpTime:   wake,
					DurationDays: terms.Days,
					Attached:     attached,
				})
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderChallenge(c)
			})
		},
	}
	terms.register(cmd, "deposit", "deposit amount")
	return cmd
}

// NewConfirmCommand creates the confirm command.
func NewConfirmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm today's wake-up for a personal challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				c, err := a.engine.ConfirmWakeUp(ctx, id, ir.Identity(rootOpts.As))
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderChallenge(c)
			})
		},
	}
}

// NewFinalizeCommand creates the finalize command.
func NewFinalizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <id>",
		Short: "Settle a personal challenge after it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				c, err := a.engine.Finalize(ctx, id, ir.Identity(rootOpts.As))
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderChallenge(c)
			})
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a personal challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				c, err := a.engine.Get(ctx, id)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderChallenge(c)
			})
		},
	}
}

// challengeList is the JSON shape of list.
type challengeList struct {
	Personal []ir.Challenge       `json:"personal"`
	Social   []ir.SocialChallenge `json:"social"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [identity]",
		Short: "List the challenges of an identity (defaults to --as)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := targetIdentity(rootOpts, args)
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				personal, err := a.engine.ListByOwner(ctx, who)
				if err != nil {
					return a.out.Fail(err)
				}
				social, err := a.engine.ListSocial(ctx, who)
				if err != nil {
					return a.out.Fail(err)
				}
				list := challengeList{Personal: personal, Social: social}
				if list.Personal == nil {
					list.Personal = []ir.Challenge{}
				}
				if list.Social == nil {
					list.Social = []ir.SocialChallenge{}
				}
				return a.out.Render(list, func(w io.Writer) {
					writeChallengeList(w, list.Personal, list.Social, a.clock.Now())
				})
			})
		},
	}
}

func (a *app) renderChallenge(c *ir.Challenge) error {
	return a.out.Render(c, func(w io.Writer) {
		writeChallenge(w, c, a.clock.Now())
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid challenge id %q", raw))
	}
	return id, nil
}

// targetIdentity is the first argument, or the caller when none is given.
func targetIdentity(rootOpts *RootOptions, args []string) ir.Identity {
	if len(args) > 0 {
		return ir.NormalizeIdentity(args[0])
	}
	return ir.NormalizeIdentity(rootOpts.As)
}
