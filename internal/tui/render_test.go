package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"enquiry-cli/internal/config"
	"enquiry-cli/internal/conversation"
	"enquiry-cli/internal/display"
	"enquiry-cli/internal/service"
)

func TestRenderWelcome(t *testing.T) {
	t.Setenv(config.ServerEnv, "")
	cfg := &config.Config{Server: "http://localhost:3000/api"}

	out := renderWelcome("1.2.3", cfg, service.Options{Language: config.Gujarati, CustomerName: "Asha"}, nil)
	for _, want := range []string{"Enquiry", "v1.2.3", "localhost:3000", "Gujarati", "Asha"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderWelcome missing %q:\n%s", want, out)
		}
	}

	out = renderWelcome("1.2.3", cfg, service.Options{Language: config.English}, errors.New("parsing config: bad"))
	if !strings.Contains(out, "guest") || !strings.Contains(out, "parsing config") {
		t.Errorf("renderWelcome should show guest and the load error:\n%s", out)
	}
}

func TestRenderLive(t *testing.T) {
	m := model{width: 80}

	if got := m.renderLive("   "); got != "" {
		t.Errorf("renderLive(blank) = %q, want empty", got)
	}

	prose := m.renderLive("Our basic plan is popular")
	if !strings.Contains(prose, "Our basic plan is popular") {
		t.Errorf("renderLive(prose) = %q", prose)
	}

	// Incomplete JSON stays prose until the payload closes.
	partial := m.renderLive(`{"text": "Plans", "prices":[{"label":"Gold"`)
	if !strings.Contains(partial, `"prices"`) {
		t.Errorf("partial payload should render raw:\n%s", partial)
	}

	structured := m.renderLive(`{"text": "Plans", "prices":[{"label":"Gold","price":"₹500"}]}`)
	if strings.Contains(structured, `"prices"`) {
		t.Errorf("complete payload should render as a table:\n%s", structured)
	}
	for _, want := range []string{"Plans", "Gold", "₹500"} {
		if !strings.Contains(structured, want) {
			t.Errorf("structured render missing %q:\n%s", want, structured)
		}
	}
}

func TestRenderLiveKeepsTail(t *testing.T) {
	m := model{width: 80}
	var lines []string
	for i := 0; i < liveTailLines+5; i++ {
		lines = append(lines, "line"+strings.Repeat("x", i))
	}
	out := m.renderLive(strings.Join(lines, "\n"))
	if strings.Count(out, "\n") != liveTailLines-1 || !strings.Contains(out, lines[len(lines)-1]) {
		t.Errorf("renderLive should keep only the last %d lines:\n%s", liveTailLines, out)
	}
}

func TestRenderExchange(t *testing.T) {
	m := model{width: 80, renderer: display.NewAnswerRenderer(60, "notty")}
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	finished := conversation.Exchange{
		Question:  "price?",
		Answer:    `{"text": "Quote", "prices":[{"type":"Basic","amount":"100"}]}`,
		Finished:  true,
		StartedAt: start,
		EndedAt:   start.Add(1500 * time.Millisecond),
	}
	out := m.renderExchange(finished)
	for _, want := range []string{"Quote", "Basic", "100", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("finished exchange missing %q:\n%s", want, out)
		}
	}

	failed := conversation.Exchange{Answer: "Half an ans", Failed: true, ErrorMessage: service.MsgCancelled}
	out = m.renderExchange(failed)
	if !strings.Contains(out, "Half an ans") || !strings.Contains(out, service.MsgCancelled) {
		t.Errorf("failed exchange should show partial answer and reason:\n%s", out)
	}

	empty := conversation.Exchange{Finished: true}
	if out := m.renderExchange(empty); !strings.Contains(out, "empty reply") {
		t.Errorf("empty exchange = %q", out)
	}
}

func TestIndentText(t *testing.T) {
	got := indentText("a\n\nb", "  ")
	if got != "  a\n\n  b" {
		t.Errorf("indentText() = %q", got)
	}
}
