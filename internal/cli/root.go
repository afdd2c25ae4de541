package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is an optional YAML config file.
	ConfigPath string
	// Database overrides db_path from the config.
	Database string
	// At pins the clock to an RFC 3339 instant.
	At string
	// As is the identity making the call.
	As string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stakewake CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stakewake",
		Short: "stakewake - deposit-backed wake-up challenges",
		Long: `Lock a deposit, confirm you woke up every day, get it back.

Personal challenges return the deposit when every day was confirmed and
burn it otherwise. Social challenges pool one deposit per participant and
settle each participant on their own attendance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.At != "" {
				if _, err := time.Parse(time.RFC3339, opts.At); err != nil {
					return WrapExitError(ExitCommandError, "invalid --at", err)
				}
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides db_path)")
	cmd.PersistentFlags().StringVar(&opts.At, "at", "", "pin the clock to an RFC 3339 instant")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "caller identity")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewConfirmCommand(opts))
	cmd.AddCommand(NewFinalizeCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCreateSocialCommand(opts))
	cmd.AddCommand(NewConfirmSocialCommand(opts))
	cmd.AddCommand(NewFinalizeSocialCommand(opts))
	cmd.AddCommand(NewShowSocialCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewOracleCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
