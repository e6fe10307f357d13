package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"enquiry-cli/internal/config"
	"enquiry-cli/internal/display"
)

func newConfigCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(global.profile)
			if err != nil {
				return err
			}
			p := display.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			p.Header("Enquiry CLI Configuration")
			p.Info("Profile:", config.ProfileName(global.profile))
			p.Info("Server:", cfg.BaseURL())
			p.Info("Language:", cfg.Lang().DisplayName())

			name := cfg.CustomerName
			if name == "" {
				name = notSet
			}
			p.Info("Customer name:", name)

			token := notSet
			if cfg.Token != "" {
				token = maskToken(cfg.Token)
			}
			p.Info("Token:", token)
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

const notSet = display.Dim + "(not set)" + display.Reset
