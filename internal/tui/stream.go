package tui

import (
	"context"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/conversation"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages sent from stream goroutine to Bubble Tea ──────────────────────

type streamFragmentMsg struct {
	handle  conversation.Handle
	text    string
	applied chan struct{} // closed by Update once the fragment is in the log
}

// ack releases the stream goroutine to read the next fragment.
func (msg streamFragmentMsg) ack() {
	if msg.applied != nil {
		close(msg.applied)
	}
}

type streamDoneMsg struct {
	handle conversation.Handle
	err    error
}

// ─── Stream command ─────────────────────────────────────────────────────────
//
// The request runs in a goroutine and forwards fragments through an
// unbuffered channel. Each fragment waits for Update to append it to the log
// and ack it before the callback returns, so the log update for one fragment
// happens before the next read from the body. Every send and wait also
// watches ctx so a cancelled stream never blocks on a reader that has gone
// away.

func beginStream(ctx context.Context, client api.ChatAPI, req api.ChatRequest, h conversation.Handle) (chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg)

	go func() {
		defer close(ch)

		err := client.StreamChat(ctx, req, func(fragment string) {
			applied := make(chan struct{})
			select {
			case ch <- streamFragmentMsg{handle: h, text: fragment, applied: applied}:
			case <-ctx.Done():
				return
			}
			select {
			case <-applied:
			case <-ctx.Done():
			}
		})

		select {
		case ch <- streamDoneMsg{handle: h, err: err}:
		case <-ctx.Done():
		}
	}()

	return ch, waitForStream(ch)
}

// waitForStream reads the next message from the channel. A closed channel
// yields no message: the done message, if any, was already delivered.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
