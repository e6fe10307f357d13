package tui

import (
	"fmt"
	"strings"

	"enquiry-cli/internal/config"
	"enquiry-cli/internal/conversation"
	"enquiry-cli/internal/display"
	"enquiry-cli/internal/reply"
	"enquiry-cli/internal/service"

	"github.com/charmbracelet/x/ansi"
)

// liveTailLines caps how much of a streaming answer View redraws.
const liveTailLines = 12

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version string, cfg *config.Config, opts service.Options, loadErr error) string {
	titleLine := logoTitleStyle.Render("Enquiry") + " " + versionStyle.Render("v"+version)

	server := ansi.Truncate(cfg.BaseURL(), 48, "...")
	who := dimStyle.Render("guest")
	if opts.CustomerName != "" {
		who = opts.CustomerName
	}
	infoLine := welcomeInfoLabel.Render(fmt.Sprintf("%s · %s · %s", server, opts.Language.DisplayName(), who))

	lines := []string{"", titleLine, infoLine}
	if loadErr != nil {
		lines = append(lines, warnMsgStyle.Render(fmt.Sprintf("! %v (using defaults)", loadErr)))
	}
	lines = append(lines, welcomeHintStyle.Render("Ask a question about our products and prices. /lang gu switches to Gujarati."), "")
	return strings.Join(lines, "\n")
}

// ─── Live answer ────────────────────────────────────────────────────────────

// renderLive draws the answer so far. It is classified on every frame, so a
// reply that turns out to be a price payload switches to the table as soon
// as the JSON is complete.
func (m model) renderLive(answer string) string {
	if strings.TrimSpace(answer) == "" {
		return ""
	}
	if sr := reply.Classify(answer); sr != nil {
		out := liveAnswerStyle.Render(strings.Join(display.WrapText(sr.Text, answerWidth(m.width)), "\n"))
		if sr.HasPrices() {
			out += "\n" + indentText(display.PriceTable(sr.Prices), "  ")
		}
		return out
	}
	lines := display.WrapText(answer, answerWidth(m.width))
	if len(lines) > liveTailLines {
		lines = lines[len(lines)-liveTailLines:]
	}
	return liveAnswerStyle.Render(strings.Join(lines, "\n"))
}

// ─── Closed exchanges ───────────────────────────────────────────────────────

// renderExchange draws a finished or failed exchange for the scrollback.
func (m model) renderExchange(ex conversation.Exchange) string {
	var b strings.Builder
	switch ex.State() {
	case conversation.StateFinished:
		if strings.TrimSpace(ex.Answer) == "" {
			b.WriteString(dimStyle.Render("  (empty reply)"))
			break
		}
		b.WriteString(strings.TrimRight(m.renderer.Render(ex.Answer), "\n"))
		if !ex.EndedAt.IsZero() {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render("  " + display.FormatDuration(ex.EndedAt.Sub(ex.StartedAt))))
		}
	case conversation.StateFailed:
		if strings.TrimSpace(ex.Answer) != "" {
			lines := display.WrapText(ex.Answer, answerWidth(m.width))
			b.WriteString(partialAnswerStyle.Render(strings.Join(lines, "\n")))
			b.WriteString("\n")
		}
		style := errorMsgStyle
		if ex.ErrorMessage == service.MsgCancelled {
			style = warnMsgStyle
		}
		b.WriteString(style.Render("  ✗ " + ex.ErrorMessage))
	default:
		b.WriteString(statusStyle.Render("  ⟳ still streaming"))
	}
	return b.String()
}

func indentText(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
