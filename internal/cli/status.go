package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/config"
	"enquiry-cli/internal/display"
)

const statusTimeout = 15 * time.Second

func newStatusCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the chat server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(global.profile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := global.newLogger(cmd.ErrOrStderr())
			client := api.NewClient(cfg, log)
			p := display.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			defer cancel()

			start := time.Now()
			resp, err := client.Health(ctx)
			if err != nil {
				p.Error(fmt.Sprintf("%s is unreachable", cfg.BaseURL()))
				p.Hint(err.Error())
				return &reportedError{err: err}
			}

			p.Header("Server Status")
			p.Info("Server:", cfg.BaseURL())
			p.Info("Status:", display.StatusLabel(resp.Status))
			if resp.Message != "" {
				p.Info("Message:", resp.Message)
			}
			p.Info("Latency:", display.FormatDuration(time.Since(start)))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
