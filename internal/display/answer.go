package display

import (
	"strings"

	"enquiry-cli/internal/reply"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F28C28")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tablePriceStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("78")).Align(lipgloss.Right)
)

// AnswerRenderer turns a finished answer into terminal output: a price
// table for structured replies, rendered markdown for prose.
type AnswerRenderer struct {
	width int
	style string
	md    *glamour.TermRenderer
}

// NewAnswerRenderer builds a renderer wrapping at width. style is a glamour
// standard style name ("dark", "light", "notty"); empty means "notty". The
// terminal is never queried here, so callers resolve the style up front.
func NewAnswerRenderer(width int, style string) *AnswerRenderer {
	if width <= 0 {
		width = 80
	}
	if style == "" {
		style = styles.NoTTYStyle
	}
	md, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(width))
	if err != nil {
		md = nil
	}
	return &AnswerRenderer{width: width, style: style, md: md}
}

// Style returns the glamour style the renderer was built with.
func (r *AnswerRenderer) Style() string {
	return r.style
}

// Render classifies answer and draws it.
func (r *AnswerRenderer) Render(answer string) string {
	if strings.TrimSpace(answer) == "" {
		return ""
	}
	sr := reply.Classify(answer)
	if sr == nil {
		return r.Markdown(answer)
	}
	out := r.Markdown(sr.Text)
	if sr.HasPrices() {
		out += "\n" + PriceTable(sr.Prices) + "\n"
	}
	return out
}

// Markdown renders prose, falling back to plain wrapping when glamour is
// unavailable or fails.
func (r *AnswerRenderer) Markdown(text string) string {
	if r.md != nil {
		if out, err := r.md.Render(text); err == nil {
			return strings.TrimRight(out, "\n") + "\n"
		}
	}
	return strings.Join(WrapText(text, r.width), "\n") + "\n"
}

// PriceTable draws prices as a two-column bordered table in list order.
func PriceTable(prices []reply.Price) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("Item", "Price").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 1:
				return tablePriceStyle
			}
			return tableCellStyle
		})
	for _, p := range prices {
		t.Row(orDash(p.Label), orDash(p.Price))
	}
	return t.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
