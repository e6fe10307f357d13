package tui

import (
	"fmt"
	"os"

	"enquiry-cli/internal/config"
	"enquiry-cli/internal/logger"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Run launches the interactive chat (inline, output scrolls above the prompt).
// With debug set, logs go to debug.log in the config directory since the
// terminal belongs to the TUI.
func Run(version, profile string, debug bool) error {
	log := zap.NewNop()
	if debug {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		fileLog, closeLog, err := logger.NewFile(dir, "debug.log")
		if err != nil {
			return err
		}
		defer closeLog()
		log = fileLog
	}

	m := initialModel(version, profile, answerStyle(), log)

	p := tea.NewProgram(m)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if fm, ok := final.(model); ok && fm.cancel != nil {
		fm.cancel()
	}
	return nil
}

// answerStyle picks the markdown style for finished answers. The background
// query reads stdin, so it must run before Bubble Tea takes the terminal.
func answerStyle() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
