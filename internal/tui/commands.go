package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/config"
	"enquiry-cli/internal/conversation"
	"enquiry-cli/internal/display"
	"enquiry-cli/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

const healthTimeout = 15 * time.Second

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	return m.ask(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/config":
		return m.cmdConfig()
	case "/clear":
		return m.cmdClear()
	case "/history":
		return m.cmdHistory()
	case "/lang", "/language":
		return m.cmdLang(args)
	case "/name":
		return m.cmdName(args)
	case "/status":
		return m.cmdStatus()
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s. Type /help", cmd)))
	}
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	row := func(key, desc string) tea.Cmd {
		return tea.Println("  " + hintKeyStyle.Render(fmt.Sprintf("%-18s", key)) + dimStyle.Render(desc))
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Commands:")),
		tea.Println(""),
		row("/lang <en|gu>", "Set the reply language"),
		row("/name <name>", "Introduce yourself (/name - to clear)"),
		row("/history", "List questions asked so far"),
		row("/clear", "Clear the conversation"),
		row("/config", "Show current configuration"),
		row("/status", "Check the chat server"),
		row("/quit", "Exit"),
		tea.Println(""),
		row("Esc / Ctrl+C", "Cancel the answer being streamed"),
		row("↑ / ↓", "Browse previous input"),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Or just type a question.")),
		tea.Println(""),
	)
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	val := func(s string) string {
		if s == "" {
			return dimStyle.Render("(not set)")
		}
		return s
	}
	token := dimStyle.Render("(not set)")
	if m.cfg.Token != "" {
		end := min(8, len(m.cfg.Token))
		token = m.cfg.Token[:end] + "..."
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:   %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:    %s", m.cfg.BaseURL())),
		tea.Println(fmt.Sprintf("    Language:  %s (%s)", m.opts.Language.DisplayName(), m.opts.Language)),
		tea.Println(fmt.Sprintf("    Name:      %s", val(m.opts.CustomerName))),
		tea.Println(fmt.Sprintf("    Token:     %s", token)),
		tea.Println(""),
	)
}

// ─── /clear ─────────────────────────────────────────────────────────────────

func (m model) cmdClear() (tea.Model, tea.Cmd) {
	if err := m.log.Clear(); err != nil {
		var busy *conversation.BusyError
		if errors.As(err, &busy) {
			return m, tea.Println(warnMsgStyle.Render("  ! " + service.MsgBusy))
		}
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}
	return m, tea.ClearScreen
}

// ─── /history ───────────────────────────────────────────────────────────────

func (m model) cmdHistory() (tea.Model, tea.Cmd) {
	exchanges := m.log.Exchanges()
	if len(exchanges) == 0 {
		return m, tea.Println(dimStyle.Render("  No questions yet."))
	}

	cmds := []tea.Cmd{tea.Println("")}
	for i, ex := range exchanges {
		question := ansi.Truncate(ex.Question, 60, "...")
		label := historyStateLabel(ex)
		cmds = append(cmds, tea.Println(fmt.Sprintf("  %s %s %s %s",
			dimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			question,
			languageTagStyle.Render("["+ex.Language+"]"),
			label,
		)))
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

func historyStateLabel(ex conversation.Exchange) string {
	switch ex.State() {
	case conversation.StateFinished:
		return successMsgStyle.Render("✓")
	case conversation.StateFailed:
		return errorMsgStyle.Render("✗ " + ex.ErrorMessage)
	}
	return statusStyle.Render("⟳")
}

// ─── /lang ──────────────────────────────────────────────────────────────────

func (m model) cmdLang(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  Language: %s (%s). Use /lang en or /lang gu.",
			m.opts.Language.DisplayName(), m.opts.Language)))
	}

	lang, err := config.ParseLanguage(args[0])
	if err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}

	m.opts.Language = lang
	m.cfg.Language = lang
	m.input.Placeholder = placeholderFor(lang)

	msg := successMsgStyle.Render(fmt.Sprintf("  ✓ Replies will be in %s", lang.DisplayName()))
	if err := m.cfg.Save(); err != nil {
		return m, tea.Sequence(
			tea.Println(msg),
			tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! Not saved: %v", err))),
		)
	}
	return m, tea.Println(msg)
}

// ─── /name ──────────────────────────────────────────────────────────────────

func (m model) cmdName(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		if m.opts.CustomerName == "" {
			return m, tea.Println(dimStyle.Render("  No name set. Use /name <your name>."))
		}
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  Name: %s", m.opts.CustomerName)))
	}

	name := strings.Join(args, " ")
	if name == "-" {
		name = ""
	}
	m.opts.CustomerName = name
	m.cfg.CustomerName = name

	msg := successMsgStyle.Render("  ✓ Name cleared")
	if name != "" {
		msg = successMsgStyle.Render(fmt.Sprintf("  ✓ Hello, %s", name))
	}
	if err := m.cfg.Save(); err != nil {
		return m, tea.Sequence(
			tea.Println(msg),
			tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! Not saved: %v", err))),
		)
	}
	return m, tea.Println(msg)
}

// ─── /status ────────────────────────────────────────────────────────────────

type healthResultMsg struct {
	resp    *api.HealthResponse
	elapsed time.Duration
	err     error
}

func (m model) cmdStatus() (tea.Model, tea.Cmd) {
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Checking "+m.cfg.BaseURL()+"...")),
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
			defer cancel()
			start := time.Now()
			resp, err := client.Health(ctx)
			return healthResultMsg{resp: resp, elapsed: time.Since(start), err: err}
		},
	)
}

func (m model) handleHealthResult(msg healthResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Server unreachable: %v", msg.err)))
	}
	line := fmt.Sprintf("  ✓ %s (%s)", msg.resp.Status, display.FormatDuration(msg.elapsed))
	cmds := []tea.Cmd{tea.Println(successMsgStyle.Render(line))}
	if msg.resp.Message != "" {
		cmds = append(cmds, tea.Println(dimStyle.Render("    "+msg.resp.Message)))
	}
	return m, tea.Sequence(cmds...)
}
