package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
)

// NewCreateSocialCommand creates the create-social command.
func NewCreateSocialCommand(rootOpts *RootOptions) *cobra.Command {
	terms := &termsFlags{}
	var participants []string

	cmd := &cobra.Command{
		Use:   "create-social",
		Short: "Pool deposits into a social challenge",
		Long: `Pool one deposit per participant into a social challenge.

The creator attaches the whole pool. At settlement every participant who
confirmed every day gets their share back; the rest is burned.

Example:
  stakewake create-social --as 0xalice --participants 0xalice,0xbob \
    --deposit-per-participant 0.05 --wake 06:30 --days 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deposit, wake, attached, err := terms.parse(int64(len(participants)))
			if err != nil {
				return err
			}
			ids := make([]ir.Identity, len(participants))
			for i, p := range participants {
				ids[i] = ir.Identity(p)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				s, err := a.engine.CreateSocial(ctx, engine.CreateSocialRequest{
					Creator:               ir.Identity(rootOpts.As),
					Participants:          ids,
					DepositPerParticipant: deposit,
					WakeUpTime:            wake,
					DurationDays:          terms.Days,
					Attached:              attached,
				})
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderSocial(s)
			})
		},
	}
	terms.register(cmd, "deposit-per-participant", "deposit owed by each participant")
	cmd.Flags().StringSliceVar(&participants, "participants", nil, "comma-separated participant identities")
	_ = cmd.MarkFlagRequired("participants")
	return cmd
}

// NewConfirmSocialCommand creates the confirm-social command.
func NewConfirmSocialCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-social <id> <participant>",
		Short: "Attest a participant's wake-up (oracle only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				s, err := a.engine.ConfirmSocialWakeUp(ctx, id, ir.Identity(rootOpts.As), ir.Identity(args[1]))
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderSocial(s)
			})
		},
	}
}

// NewFinalizeSocialCommand creates the finalize-social command.
func NewFinalizeSocialCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize-social <id>",
		Short: "Settle a social challenge after it ends (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				s, err := a.engine.FinalizeSocial(ctx, id, ir.Identity(rootOpts.As))
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderSocial(s)
			})
		},
	}
}

// NewShowSocialCommand creates the show-social command.
func NewShowSocialCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show-social <id>",
		Short: "Show a social challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				s, err := a.engine.GetSocial(ctx, id)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.renderSocial(s)
			})
		},
	}
}

func (a *app) renderSocial(s *ir.SocialChallenge) error {
	return a.out.Render(s, func(w io.Writer) {
		writeSocial(w, s, a.clock.Now())
	})
}
