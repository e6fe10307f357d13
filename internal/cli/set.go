package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"enquiry-cli/internal/config"
	"enquiry-cli/internal/display"
)

const setLongDesc string = `Save a setting to the active profile.

Keys:
  server   Chat API base URL  (e.g. http://localhost:3000/api)
  lang     Reply language     (en or gu)
  name     Customer name sent with questions ("-" clears it)
  token    Bearer token for authenticated calls ("-" clears it)

Examples:
  enquiry set server http://localhost:3000/api
  enquiry --profile staging set lang gu`

const setShortDesc string = "Save a configuration value"

type setCommander struct {
	global *globalFlags
}

func newSetCmd(global *globalFlags) *cobra.Command {
	cmder := &setCommander{global: global}

	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     setShortDesc,
		Long:      setLongDesc,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{"server", "lang", "name", "token"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0], strings.Join(args[1:], " "))
		},
	}
}

func (c *setCommander) run(_ context.Context, cmd *cobra.Command, key, value string) error {
	cfg, err := config.Load(c.global.profile)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	shown := value

	switch key {
	case "server":
		if err := config.ValidateServer(value); err != nil {
			return err
		}
		cfg.Server = strings.TrimRight(value, "/")
		shown = cfg.Server
	case "lang", "language":
		lang, err := config.ParseLanguage(value)
		if err != nil {
			return err
		}
		cfg.Language = lang
		shown = lang.DisplayName()
	case "name":
		if value == "-" {
			value = ""
		}
		cfg.CustomerName = value
		if value == "" {
			shown = "(cleared)"
		}
	case "token":
		if value == "-" {
			value = ""
		}
		cfg.Token = value
		shown = maskToken(value)
	default:
		return fmt.Errorf("unknown config key: %s (valid: server, lang, name, token)", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	display.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(fmt.Sprintf("%s set to %s", key, shown))
	return nil
}

// maskToken keeps enough of a token to recognise it.
func maskToken(token string) string {
	if token == "" {
		return "(cleared)"
	}
	end := min(len(token), 8)
	return token[:end] + "..."
}
