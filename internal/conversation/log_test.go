package conversation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog() *Log {
	l := NewLog()
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	l.newID = func() string {
		n++
		return fmt.Sprintf("ex-%d", n)
	}
	return l
}

func TestSubmitOpensExchange(t *testing.T) {
	l := newTestLog()
	h, err := l.Submit("What is the price?", "gu")
	require.NoError(t, err)
	assert.Equal(t, "ex-1", h.ID())
	assert.False(t, h.IsZero())

	ex, ok := l.Get(h)
	require.True(t, ok)
	assert.Equal(t, "What is the price?", ex.Question)
	assert.Equal(t, "gu", ex.Language)
	assert.Empty(t, ex.Answer)
	assert.Equal(t, StateOpen, ex.State())
	assert.False(t, ex.StartedAt.IsZero())
	assert.True(t, ex.EndedAt.IsZero())

	open, ok := l.Open()
	require.True(t, ok)
	assert.Equal(t, h, open)
}

func TestAnswerIsConcatenationOfFragments(t *testing.T) {
	l := newTestLog()
	h, err := l.Submit("q", "en")
	require.NoError(t, err)

	frags := []string{"Hel", "lo", " ", "₹", "5"}
	for _, f := range frags {
		require.NoError(t, l.AppendFragment(h, f))
		ex, _ := l.Get(h)
		assert.True(t, strings.HasSuffix(ex.Answer, f))
	}
	require.NoError(t, l.Complete(h))

	ex, _ := l.Get(h)
	assert.Equal(t, strings.Join(frags, ""), ex.Answer)
	assert.Equal(t, StateFinished, ex.State())
	assert.False(t, ex.EndedAt.IsZero())
}

func TestSubmitWhileOpenIsRejected(t *testing.T) {
	l := newTestLog()
	h, err := l.Submit("first", "en")
	require.NoError(t, err)

	_, err = l.Submit("second", "en")
	var busy *BusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, h.ID(), busy.OpenID)
	assert.Equal(t, "first", busy.OpenQuestion)
	assert.Contains(t, err.Error(), "first")
	assert.Equal(t, 1, l.Len())

	require.NoError(t, l.Complete(h))
	h2, err := l.Submit("second", "en")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.NotEqual(t, h.ID(), h2.ID())
}

func TestTerminalTransitions(t *testing.T) {
	t.Run("complete is idempotent", func(t *testing.T) {
		l := newTestLog()
		h, _ := l.Submit("q", "en")
		require.NoError(t, l.Complete(h))
		first, _ := l.Get(h)
		require.NoError(t, l.Complete(h))
		second, _ := l.Get(h)
		assert.Equal(t, first, second)
	})

	t.Run("fail after complete is ignored", func(t *testing.T) {
		l := newTestLog()
		h, _ := l.Submit("q", "en")
		require.NoError(t, l.AppendFragment(h, "done"))
		require.NoError(t, l.Complete(h))
		require.NoError(t, l.Fail(h, "late failure"))
		ex, _ := l.Get(h)
		assert.Equal(t, StateFinished, ex.State())
		assert.Empty(t, ex.ErrorMessage)
	})

	t.Run("fail keeps partial answer", func(t *testing.T) {
		l := newTestLog()
		h, _ := l.Submit("q", "en")
		require.NoError(t, l.AppendFragment(h, "partial"))
		require.NoError(t, l.Fail(h, "Request cancelled."))
		require.NoError(t, l.Fail(h, "second message"))
		ex, _ := l.Get(h)
		assert.Equal(t, StateFailed, ex.State())
		assert.Equal(t, "partial", ex.Answer)
		assert.Equal(t, "Request cancelled.", ex.ErrorMessage)
		assert.False(t, ex.Finished)
	})

	t.Run("append after terminal state", func(t *testing.T) {
		l := newTestLog()
		h, _ := l.Submit("q", "en")
		require.NoError(t, l.Fail(h, "boom"))
		assert.ErrorIs(t, l.AppendFragment(h, "late"), ErrExchangeClosed)
		ex, _ := l.Get(h)
		assert.Empty(t, ex.Answer)
	})

	t.Run("closing frees the log", func(t *testing.T) {
		l := newTestLog()
		h, _ := l.Submit("q", "en")
		require.NoError(t, l.Fail(h, "boom"))
		_, ok := l.Open()
		assert.False(t, ok)
	})
}

func TestUnknownHandle(t *testing.T) {
	l := newTestLog()
	assert.ErrorIs(t, l.AppendFragment(Handle{}, "x"), ErrUnknownExchange)
	assert.ErrorIs(t, l.Complete(Handle{index: 3, id: "nope"}), ErrUnknownExchange)

	// A handle from another log points at the same index but a different ID.
	other := newTestLog()
	other.newID = func() string { return "foreign" }
	h, _ := other.Submit("elsewhere", "en")
	_, _ = l.Submit("here", "en")
	assert.ErrorIs(t, l.Fail(h, "x"), ErrUnknownExchange)

	_, ok := l.Get(Handle{})
	assert.False(t, ok)
}

func TestExchangesAreChronologicalCopies(t *testing.T) {
	l := newTestLog()
	for _, q := range []string{"a", "b", "c"} {
		h, err := l.Submit(q, "en")
		require.NoError(t, err)
		require.NoError(t, l.AppendFragment(h, strings.ToUpper(q)))
		require.NoError(t, l.Complete(h))
	}

	got := l.Exchanges()
	require.Len(t, got, 3)
	for i, q := range []string{"a", "b", "c"} {
		assert.Equal(t, q, got[i].Question)
		assert.Equal(t, strings.ToUpper(q), got[i].Answer)
	}
	assert.True(t, got[0].StartedAt.Before(got[1].StartedAt))

	got[0].Answer = "mutated"
	assert.Equal(t, "A", l.Exchanges()[0].Answer)
}

func TestClear(t *testing.T) {
	l := newTestLog()
	h, _ := l.Submit("q", "en")

	var busy *BusyError
	assert.True(t, errors.As(l.Clear(), &busy))
	assert.Equal(t, 1, l.Len())

	require.NoError(t, l.Complete(h))
	require.NoError(t, l.Clear())
	assert.Equal(t, 0, l.Len())
	assert.ErrorIs(t, l.AppendFragment(h, "x"), ErrUnknownExchange)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "finished", StateFinished.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
