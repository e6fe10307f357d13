// Package cli wires the enquiry command line. Running the binary without a
// subcommand opens the interactive chat.
package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"enquiry-cli/internal/logger"
	"enquiry-cli/internal/tui"
)

const rootLongDesc string = `Ask the enquiry assistant about products and prices.

Run without a command to open the interactive chat. Answers stream in as
they are generated; structured replies with prices are drawn as a table.

Examples:
  enquiry
  enquiry ask "What does the basic plan cost?"
  enquiry --profile staging ask --lang gu "Gold plan price?"
  enquiry set lang gu`

const rootShortDesc string = "Chat with the enquiry assistant"

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	profile string
	debug   bool
}

// newLogger returns a debug logger on w with --debug, otherwise a no-op.
func (f *globalFlags) newLogger(w io.Writer) *zap.Logger {
	if !f.debug {
		return zap.NewNop()
	}
	return logger.New(true, w)
}

// reportedError marks a failure the command has already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by the command that
// returned it, so the caller only needs to set the exit status.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func NewRootCmd(version string) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "enquiry",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(version, flags.profile, flags.debug)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.profile, "profile", "", "Configuration profile to use")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newAskCmd(flags))
	cmd.AddCommand(newSetCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newProfilesCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}
