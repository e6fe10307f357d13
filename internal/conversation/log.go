// Package conversation holds the ordered log of question/answer exchanges.
//
// A Log is owned by a single goroutine (the TUI update loop or the ask
// command) and is not safe for concurrent use.
package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of an Exchange.
type State int

const (
	StateOpen State = iota
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Exchange is one question and its (possibly still growing) answer.
type Exchange struct {
	ID           string
	Question     string
	Language     string
	Answer       string
	Finished     bool
	Failed       bool
	ErrorMessage string
	StartedAt    time.Time
	EndedAt      time.Time
}

// State derives the lifecycle state from the terminal flags.
func (e Exchange) State() State {
	switch {
	case e.Failed:
		return StateFailed
	case e.Finished:
		return StateFinished
	}
	return StateOpen
}

// IsOpen reports whether the exchange can still receive fragments.
func (e Exchange) IsOpen() bool {
	return !e.Finished && !e.Failed
}

// Handle identifies an Exchange within the Log that created it.
type Handle struct {
	index int
	id    string
}

// ID returns the exchange ID the handle refers to.
func (h Handle) ID() string { return h.id }

// IsZero reports whether h was never issued by a Log.
func (h Handle) IsZero() bool { return h.id == "" }

// BusyError is returned by Submit while another exchange is open.
type BusyError struct {
	OpenID       string
	OpenQuestion string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("an answer is still streaming for %q", e.OpenQuestion)
}

var (
	// ErrExchangeClosed is returned when appending to a finished or failed exchange.
	ErrExchangeClosed = errors.New("exchange already closed")
	// ErrUnknownExchange is returned for a handle this log did not issue.
	ErrUnknownExchange = errors.New("unknown exchange")
)

// Log is the append-only, chronological list of exchanges.
type Log struct {
	exchanges []*Exchange
	open      int // index of the open exchange, -1 if none
	now       func() time.Time
	newID     func() string
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{
		open:  -1,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Submit opens a new exchange with an empty answer, recording the language
// the question is asked in. Only one exchange may be open at a time; a second
// Submit returns *BusyError and changes nothing.
func (l *Log) Submit(question, language string) (Handle, error) {
	if l.open >= 0 {
		cur := l.exchanges[l.open]
		return Handle{}, &BusyError{OpenID: cur.ID, OpenQuestion: cur.Question}
	}
	ex := &Exchange{
		ID:        l.newID(),
		Question:  question,
		Language:  language,
		StartedAt: l.now(),
	}
	l.exchanges = append(l.exchanges, ex)
	l.open = len(l.exchanges) - 1
	return Handle{index: l.open, id: ex.ID}, nil
}

// AppendFragment concatenates fragment onto the answer of an open exchange.
func (l *Log) AppendFragment(h Handle, fragment string) error {
	ex, err := l.lookup(h)
	if err != nil {
		return err
	}
	if !ex.IsOpen() {
		return ErrExchangeClosed
	}
	ex.Answer += fragment
	return nil
}

// Complete marks the exchange finished. Calling it on a closed exchange is a no-op.
func (l *Log) Complete(h Handle) error {
	ex, err := l.lookup(h)
	if err != nil {
		return err
	}
	if !ex.IsOpen() {
		return nil
	}
	ex.Finished = true
	l.close(h, ex)
	return nil
}

// Fail marks the exchange failed with a user-visible message. Calling it on a
// closed exchange is a no-op.
func (l *Log) Fail(h Handle, message string) error {
	ex, err := l.lookup(h)
	if err != nil {
		return err
	}
	if !ex.IsOpen() {
		return nil
	}
	ex.Failed = true
	ex.ErrorMessage = message
	l.close(h, ex)
	return nil
}

// Get returns a copy of the exchange h refers to.
func (l *Log) Get(h Handle) (Exchange, bool) {
	ex, err := l.lookup(h)
	if err != nil {
		return Exchange{}, false
	}
	return *ex, true
}

// Open returns the handle of the open exchange, if any.
func (l *Log) Open() (Handle, bool) {
	if l.open < 0 {
		return Handle{}, false
	}
	return Handle{index: l.open, id: l.exchanges[l.open].ID}, true
}

// Exchanges returns copies of all exchanges in chronological order.
func (l *Log) Exchanges() []Exchange {
	out := make([]Exchange, len(l.exchanges))
	for i, ex := range l.exchanges {
		out[i] = *ex
	}
	return out
}

// Len returns the number of exchanges.
func (l *Log) Len() int {
	return len(l.exchanges)
}

// Clear drops all exchanges. It refuses while an exchange is open, since the
// stream feeding it still holds a handle.
func (l *Log) Clear() error {
	if l.open >= 0 {
		cur := l.exchanges[l.open]
		return &BusyError{OpenID: cur.ID, OpenQuestion: cur.Question}
	}
	l.exchanges = nil
	return nil
}

func (l *Log) lookup(h Handle) (*Exchange, error) {
	if h.index < 0 || h.index >= len(l.exchanges) || l.exchanges[h.index].ID != h.id {
		return nil, ErrUnknownExchange
	}
	return l.exchanges[h.index], nil
}

func (l *Log) close(h Handle, ex *Exchange) {
	ex.EndedAt = l.now()
	if l.open == h.index {
		l.open = -1
	}
}
