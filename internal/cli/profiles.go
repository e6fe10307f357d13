package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"enquiry-cli/internal/config"
	"enquiry-cli/internal/display"
)

func newProfilesCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configuration profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := display.NewPrinter(out, cmd.ErrOrStderr())

			if len(profiles) == 0 {
				p.Warn("No profiles configured. Run: enquiry set server <url>")
				return nil
			}

			p.Header("Profiles")
			active := config.ProfileName(global.profile)
			for _, name := range profiles {
				marker := " "
				if name == active {
					marker = display.Green + "●" + display.Reset
				}
				fmt.Fprintf(out, "  %s %s\n", marker, name)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
