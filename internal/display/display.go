package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"enquiry-cli/internal/conversation"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

// Printer writes status lines to an output and an error stream.
type Printer struct {
	out io.Writer
	err io.Writer
}

func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// std prints to the process stdout and stderr.
var std = NewPrinter(os.Stdout, os.Stderr)

func (p *Printer) Header(text string) {
	fmt.Fprintf(p.out, "\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Fprintln(p.out, strings.Repeat("─", min(utf8.RuneCountInString(text)+4, 80)))
}

func (p *Printer) Success(text string) {
	fmt.Fprintf(p.out, "%s✓%s %s\n", Green, Reset, text)
}

func (p *Printer) Error(text string) {
	fmt.Fprintf(p.err, "%s✗%s %s\n", Red, Reset, text)
}

func (p *Printer) Warn(text string) {
	fmt.Fprintf(p.out, "%s!%s %s\n", Yellow, Reset, text)
}

// Hint prints a dimmed follow-up line to the error stream, below an Error.
func (p *Printer) Hint(text string) {
	fmt.Fprintf(p.err, "  %s%s%s\n", Dim, text, Reset)
}

func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "  %s%-20s%s %s\n", Dim, label, Reset, value)
}

func (p *Printer) Spinner(text string) {
	fmt.Fprintf(p.out, "\r%s⟳%s %s", Yellow, Reset, text)
}

func (p *Printer) ClearLine() {
	fmt.Fprint(p.out, "\r\033[K")
}

func Header(text string) { std.Header(text) }
func Success(text string) { std.Success(text) }
func Error(text string) { std.Error(text) }
func Warn(text string) { std.Warn(text) }
func Hint(text string) { std.Hint(text) }
func Info(label, value string) { std.Info(label, value) }
func Spinner(text string) { std.Spinner(text) }
func ClearLine() { std.ClearLine() }

// StateLabel colours an exchange state for history listings.
func StateLabel(s conversation.State) string {
	switch s {
	case conversation.StateOpen:
		return Yellow + "⟳ streaming" + Reset
	case conversation.StateFinished:
		return Green + "✓ answered" + Reset
	case conversation.StateFailed:
		return Red + "✗ failed" + Reset
	}
	return s.String()
}

// StatusLabel colours a health status string from the server.
func StatusLabel(status string) string {
	switch strings.ToLower(status) {
	case "success", "ok", "healthy":
		return Green + status + Reset
	case "":
		return Gray + "unknown" + Reset
	}
	return Red + status + Reset
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDuration rounds d for display: milliseconds below a second,
// tenths of a second above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// WrapText wraps text at word boundaries, keeping blank lines between
// paragraphs. Words longer than width are left whole.
func WrapText(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		words := strings.Fields(paragraph)
		current := ""
		for _, word := range words {
			if current == "" {
				current = word
			} else if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}
