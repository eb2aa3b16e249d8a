package repl

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/session"
)

func newLocalModel(t *testing.T) Model {
	t.Helper()
	sess := session.New(session.Config{Logger: mdwlog.Discard(), Source: history.SourceREPL})
	m := NewModel(NewLocalBackend(sess))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

// submit types line, presses enter and feeds the evaluation result back
func submit(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.True(t, m.loading)
	require.NotNil(t, cmd)

	result := m.evaluate(line)()
	updated, _ = m.Update(result)
	return updated.(Model)
}

func TestSubmitEvaluatesLine(t *testing.T) {
	m := newLocalModel(t)
	m = submit(t, m, "1 + 2 ; 3 / 0 ;")

	require.False(t, m.loading)
	require.Equal(t, 2, m.statements)
	require.Equal(t, 1, m.errors)
	require.Len(t, m.transcript, 3)
	require.Equal(t, "1 + 2 ; 3 / 0 ;", m.transcript[0].input)
	require.Equal(t, int64(3), m.transcript[1].entry.Value)
	require.Equal(t, "Evaluation Error: Division by zero", m.transcript[2].entry.Error)

	out := m.View()
	require.Contains(t, out, "1 + 2 ;")
	require.Contains(t, out, "Division by zero")
	require.Contains(t, out, "statements: 2")
}

func TestStatementNumbersContinue(t *testing.T) {
	m := newLocalModel(t)
	m = submit(t, m, "1 ;")
	m = submit(t, m, "2 ;")

	last := m.transcript[len(m.transcript)-1]
	require.Equal(t, 2, last.entry.Statement)
}

func TestEmptyInputIsIgnored(t *testing.T) {
	m := newLocalModel(t)
	m.input.SetValue("   ")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.False(t, m.loading)
	require.Empty(t, m.inputs)
}

func TestRecall(t *testing.T) {
	m := newLocalModel(t)
	m = submit(t, m, "1 ;")
	m = submit(t, m, "2 ;")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	require.Equal(t, "2 ;", m.input.Value())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	require.Equal(t, "1 ;", m.input.Value())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	require.Equal(t, "2 ;", m.input.Value())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	require.Equal(t, "", m.input.Value())
}

func TestTokensView(t *testing.T) {
	m := newLocalModel(t)
	m.input.SetValue("4 >= x ;")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	require.Equal(t, ViewTokens, m.view)

	tokens := m.renderTokens()
	require.Contains(t, tokens, "GREATER_THAN_OR_EQUAL_OP")
	require.Contains(t, tokens, "not a lexeme")
	require.Contains(t, tokens, "SEMI_COLON")
}

func TestClear(t *testing.T) {
	m := newLocalModel(t)
	m = submit(t, m, "1 ;")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = updated.(Model)
	require.Empty(t, m.transcript)
	require.True(t, strings.Contains(m.renderTranscript(), "terminated by ';'"))
}

type failingBackend struct{}

func (failingBackend) Evaluate(context.Context, string) ([]Entry, error) {
	return nil, errors.New("connection refused")
}

func (failingBackend) Name() string { return "remote" }

func TestBackendErrorIsShown(t *testing.T) {
	m := NewModel(failingBackend{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	m = submit(t, m, "1 ;")
	require.Len(t, m.transcript, 2)
	require.Equal(t, "connection refused", m.transcript[1].errText)
	require.Contains(t, m.View(), "Error: connection refused")
}

func TestQuit(t *testing.T) {
	m := newLocalModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}
