package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/config"
	"enquiry-cli/internal/conversation"
	"enquiry-cli/internal/display"
	"enquiry-cli/internal/service"
)

const askLongDesc string = `Ask a single question and print the answer.

The answer streams to the terminal as it arrives. When stdout is not a
terminal, or with --raw, the reply is written exactly as received so it can
be piped. Press Ctrl+C to abandon a long answer.

Examples:
  enquiry ask "Which plans do you offer?"
  enquiry ask --lang gu --name Asha "Gold plan price?"
  enquiry ask --raw "price list" > prices.txt`

const askShortDesc string = "Ask one question"

type askCommander struct {
	global   *globalFlags
	lang     string
	name     string
	noStream bool
	raw      bool
}

func newAskCmd(global *globalFlags) *cobra.Command {
	cmder := &askCommander{global: global}

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.lang, "lang", "l", "", "Reply language for this question (en or gu)")
	cmd.Flags().StringVarP(&cmder.name, "name", "n", "", "Customer name sent with this question")
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the whole answer before printing")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the reply verbatim without formatting")

	return cmd
}

func (c *askCommander) options(cfg *config.Config) (service.Options, error) {
	opts := service.OptionsFromConfig(cfg)
	if c.lang != "" {
		lang, err := config.ParseLanguage(c.lang)
		if err != nil {
			return service.Options{}, err
		}
		opts.Language = lang
	}
	if name := strings.TrimSpace(c.name); name != "" {
		opts.CustomerName = name
	}
	return opts, nil
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, question string) error {
	cfg, err := config.Load(c.global.profile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := c.options(cfg)
	if err != nil {
		return err
	}

	log := c.global.newLogger(cmd.ErrOrStderr())
	defer func() { _ = log.Sync() }()

	runner := service.NewRunner(api.NewClient(cfg, log), conversation.NewLog(), log)
	out := cmd.OutOrStdout()
	p := display.NewPrinter(out, cmd.ErrOrStderr())

	if c.raw || !isTerminal(out) {
		return c.runPlain(ctx, runner, p, out, question, opts)
	}
	return c.runPretty(ctx, runner, p, out, question, opts)
}

// runPlain writes the reply exactly as received.
func (c *askCommander) runPlain(ctx context.Context, runner *service.Runner, p *display.Printer, out io.Writer, question string, opts service.Options) error {
	var (
		ex  conversation.Exchange
		err error
	)
	if c.noStream {
		ex, err = runner.RunOnce(ctx, question, opts)
		fmt.Fprint(out, ex.Answer)
	} else {
		ex, err = runner.Run(ctx, question, opts, func(fragment string) {
			fmt.Fprint(out, fragment)
		})
	}
	if ex.Answer != "" && !strings.HasSuffix(ex.Answer, "\n") {
		fmt.Fprintln(out)
	}
	return report(p, err)
}

// runPretty shows progress while the reply streams, then renders it once.
func (c *askCommander) runPretty(ctx context.Context, runner *service.Runner, p *display.Printer, out io.Writer, question string, opts service.Options) error {
	renderer := display.NewAnswerRenderer(terminalWidth(out)-4, glamourStyle(out))

	var (
		ex  conversation.Exchange
		err error
	)
	p.Spinner("Waiting for an answer...")
	if c.noStream {
		ex, err = runner.RunOnce(ctx, question, opts)
	} else {
		received := 0
		ex, err = runner.Run(ctx, question, opts, func(fragment string) {
			received += len([]rune(fragment))
			p.Spinner(fmt.Sprintf("Receiving answer... %d chars", received))
		})
	}
	p.ClearLine()

	switch {
	case err == nil:
		fmt.Fprintln(out, renderer.Render(ex.Answer))
		fmt.Fprintf(out, "%s%s%s\n", display.Dim, display.FormatDuration(ex.EndedAt.Sub(ex.StartedAt)), display.Reset)
	case ex.Answer != "":
		fmt.Fprintln(out, renderer.Markdown(ex.Answer))
	}
	return report(p, err)
}

// report prints a failed exchange and marks the error as shown.
func report(p *display.Printer, err error) error {
	if err == nil {
		return nil
	}
	msg := service.ErrorMessage(err)
	if errors.Is(err, service.ErrEmptyQuestion) {
		msg = "Question is empty."
	}
	p.Error(msg)
	if hint := service.Suggestion(err); hint != "" {
		p.Hint(hint)
	}
	return &reportedError{err: err}
}
