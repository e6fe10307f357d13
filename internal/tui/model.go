package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/config"
	"enquiry-cli/internal/conversation"
	"enquiry-cli/internal/display"
	"enquiry-cli/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// ─── App mode ───────────────────────────────────────────────────────────────

type appMode int

const (
	modeIdle appMode = iota
	modeStreaming
)

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/clear", "Clear the conversation"},
	{"/config", "Show current configuration"},
	{"/help", "Show all commands"},
	{"/history", "List questions asked so far"},
	{"/lang", "Show or set the reply language (en, gu)"},
	{"/name", "Show or set your name"},
	{"/quit", "Exit"},
	{"/status", "Check the chat server"},
}

const maxHistory = 1000

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// App state
	mode     appMode
	cfg      *config.Config
	loadErr  error
	client   api.ChatAPI
	log      *conversation.Log
	logger   *zap.Logger
	renderer *display.AnswerRenderer
	style    string // glamour style, resolved before the program starts
	opts     service.Options
	version  string
	profile  string

	// Streaming state: the open exchange and the channel feeding it
	active   conversation.Handle
	streamCh chan tea.Msg
	cancel   context.CancelFunc

	// UI state
	ready        bool
	cmdMenuIdx   int
	cmdMenuOpen  bool
	lastInputVal string

	// Input history
	history      []string
	historyIdx   int // -1 when not browsing
	historySaved string
}

func initialModel(version, profile, style string, logger *zap.Logger) model {
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorOrange)

	cfg, err := config.Load(profile)
	if err != nil {
		logger.Warn("config not loaded", zap.Error(err))
		cfg = &config.Config{Profile: profile}
	}

	m := model{
		spinner:    sp,
		version:    version,
		profile:    profile,
		cfg:        cfg,
		loadErr:    err,
		client:     api.NewClient(cfg, logger),
		log:        conversation.NewLog(),
		logger:     logger,
		renderer:   display.NewAnswerRenderer(80, style),
		style:      style,
		opts:       service.OptionsFromConfig(cfg),
		mode:       modeIdle,
		history:    make([]string, 0),
		historyIdx: -1,
	}
	m.input = newInput(m.opts.Language)
	return m
}

func newInput(lang config.Language) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholderFor(lang)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorOrange)
	return ti
}

func placeholderFor(lang config.Language) string {
	return fmt.Sprintf("Ask about our prices in %s, or type /help...", lang.DisplayName())
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6
		m.renderer = display.NewAnswerRenderer(answerWidth(m.width), m.style)

		if !m.ready {
			m.ready = true
			cmds = append(cmds, tea.Println(renderWelcome(m.version, m.cfg, m.opts, m.loadErr)))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.mode == modeStreaming {
				return m.cancelStream()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			if m.mode == modeStreaming {
				return m.cancelStream()
			}
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx--
						if m.cmdMenuIdx < 0 {
							m.cmdMenuIdx = len(matches) - 1
						}
						return m, nil
					}
				} else if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historySaved = m.input.Value()
						m.historyIdx = len(m.history) - 1
					} else if m.historyIdx > 0 {
						m.historyIdx--
					}
					m.input.SetValue(m.history[m.historyIdx])
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyDown:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx++
						if m.cmdMenuIdx >= len(matches) {
							m.cmdMenuIdx = 0
						}
						return m, nil
					}
				} else if m.historyIdx != -1 {
					m.historyIdx++
					if m.historyIdx >= len(m.history) {
						m.historyIdx = -1
						m.input.SetValue(m.historySaved)
						m.historySaved = ""
					} else {
						m.input.SetValue(m.history[m.historyIdx])
					}
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyTab:
			if m.mode == modeIdle && m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.mode == modeStreaming {
				return m, tea.Println(warnMsgStyle.Render("  ! " + service.MsgBusy))
			}

			if m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) && !strings.Contains(m.input.Value(), " ") {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}

			if len(m.history) == 0 || m.history[len(m.history)-1] != value {
				m.history = append(m.history, value)
				if len(m.history) > maxHistory {
					m.history = m.history[len(m.history)-maxHistory:]
				}
			}
			m.historyIdx = -1
			m.historySaved = ""

			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			return m.dispatchInput(value)
		}

	// ── Stream messages ───────────────────────────────────────────────
	case streamFragmentMsg:
		defer msg.ack()
		if msg.handle != m.active || m.streamCh == nil {
			return m, nil
		}
		if err := m.log.AppendFragment(msg.handle, msg.text); err != nil {
			m.logger.Debug("fragment ignored", zap.String("exchange", msg.handle.ID()), zap.Error(err))
		}
		return m, waitForStream(m.streamCh)

	case streamDoneMsg:
		if msg.handle != m.active || m.streamCh == nil {
			return m, nil
		}
		return m.finishStream(msg.err)

	case healthResultMsg:
		return m.handleHealthResult(msg)
	}

	// Update sub-components
	var cmd tea.Cmd

	if m.mode != modeStreaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	// Track input changes to open/close command menu and reset selection
	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 && m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
			m.historyIdx = -1
			m.historySaved = ""
		}
		m.cmdMenuOpen = strings.HasPrefix(newVal, "/")
		m.cmdMenuIdx = 0
	}

	return m, tea.Batch(cmds...)
}

// ─── Exchange lifecycle ─────────────────────────────────────────────────────

// ask opens an exchange and starts streaming its answer.
func (m model) ask(question string) (tea.Model, tea.Cmd) {
	req, err := service.BuildRequest(question, m.opts)
	if err != nil {
		return m, nil
	}

	h, err := m.log.Submit(req.Message, req.Language)
	if err != nil {
		var busy *conversation.BusyError
		if errors.As(err, &busy) {
			return m, tea.Println(warnMsgStyle.Render("  ! " + service.MsgBusy))
		}
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, waitCmd := beginStream(ctx, m.client, req, h)

	m.mode = modeStreaming
	m.active = h
	m.streamCh = ch
	m.cancel = cancel
	m.logger.Debug("exchange opened", zap.String("exchange", h.ID()), zap.String("language", req.Language))

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(userPromptStyle.Render("  ❯ "+req.Message)+" "+languageTagStyle.Render("["+req.Language+"]")),
		waitCmd,
	)
}

// cancelStream aborts the active request and leaves its exchange failed.
func (m model) cancelStream() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	_ = m.log.Fail(m.active, service.MsgCancelled)
	m.logger.Info("exchange cancelled", zap.String("exchange", m.active.ID()))
	return m.closeStream()
}

// finishStream closes the active exchange from the stream's final result.
func (m model) finishStream(err error) (tea.Model, tea.Cmd) {
	var extra []tea.Cmd
	if err != nil {
		m.logger.Warn("exchange failed", zap.String("exchange", m.active.ID()), zap.Error(err))
		_ = m.log.Fail(m.active, service.ErrorMessage(err))
		if hint := service.Suggestion(err); hint != "" {
			extra = append(extra, tea.Println(dimStyle.Render("    "+hint)))
		}
	} else {
		_ = m.log.Complete(m.active)
	}
	if m.cancel != nil {
		m.cancel()
	}
	return m.closeStream(extra...)
}

// closeStream prints the closed exchange and returns to idle.
func (m model) closeStream(extra ...tea.Cmd) (tea.Model, tea.Cmd) {
	ex, _ := m.log.Get(m.active)
	m.mode = modeIdle
	m.streamCh = nil
	m.cancel = nil
	m.active = conversation.Handle{}
	cmds := append([]tea.Cmd{tea.Println(m.renderExchange(ex))}, extra...)
	return m, tea.Sequence(cmds...)
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: finished output is printed above via tea.Println. View shows
// the answer still being streamed, then the prompt and hints.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	if m.mode == modeStreaming {
		ex, _ := m.log.Get(m.active)
		if live := m.renderLive(ex.Answer); live != "" {
			s.WriteString(live)
			s.WriteString("\n")
		}
		status := "Waiting for reply..."
		if ex.Answer != "" {
			status = fmt.Sprintf("Receiving... %d chars", len([]rune(ex.Answer)))
		}
		s.WriteString(m.spinner.View() + " " + statusStyle.Render(status))
	} else {
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	if m.mode == modeStreaming {
		return hintBarStyle.Render("  Esc cancel")
	}

	if m.cmdMenuOpen {
		matches := matchCommands(m.input.Value())
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	return hintBarStyle.Render("  ? for help")
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := c.name + strings.Repeat(" ", maxLen-len(c.name))

		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching the command word of input.
func matchCommands(input string) []slashCmd {
	prefix := strings.ToLower(input)
	if i := strings.IndexByte(prefix, ' '); i >= 0 {
		prefix = prefix[:i]
	}
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

func answerWidth(termWidth int) int {
	w := termWidth - 4
	if w > 96 {
		w = 96
	}
	if w < 20 {
		w = 20
	}
	return w
}
