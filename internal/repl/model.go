// ============================================================================
// bexpr - Statement Lexer and Evaluator
// ============================================================================
//
// Package:     repl
// Description: Interactive terminal UI for evaluating statements
// Author:      Mike Stoffels
// Created:     2025-04-24
// License:     MIT
// ============================================================================

package repl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/bexpr/internal/lexer"
)

// View represents the panes of the REPL
type View int

const (
	ViewTranscript View = iota
	ViewTokens
)

// EvalTimeout bounds a single evaluation request
const EvalTimeout = 10 * time.Second

// evalResultMsg carries the result of an asynchronous evaluation
type evalResultMsg struct {
	input    string
	entries  []Entry
	err      error
	duration time.Duration
}

// transcriptLine is one rendered transcript row
type transcriptLine struct {
	input   string // Non-empty for the echoed input line
	entry   *Entry
	errText string // Backend failure
}

// Model is the REPL model
type Model struct {
	view    View
	width   int
	height  int
	ready   bool
	loading bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	backend    Backend
	transcript []transcriptLine
	inputs     []string // Submitted lines, oldest first
	recall     int      // Index into inputs while browsing, len(inputs) otherwise
	statements int
	errors     int
	last       time.Duration
}

// NewModel creates a REPL model evaluating through backend
func NewModel(backend Backend) Model {
	ti := textinput.New()
	ti.Placeholder = "1 + 2 * 3 ;"
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Width = 76
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		view:    ViewTranscript,
		input:   ti,
		spinner: sp,
		backend: backend,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			m.view = (m.view + 1) % 2
			m.updateContent()
			return m, nil

		case "ctrl+l":
			m.transcript = nil
			m.updateContent()
			return m, nil

		case "up":
			if m.recall > 0 {
				m.recall--
				m.input.SetValue(m.inputs[m.recall])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.recall < len(m.inputs)-1 {
				m.recall++
				m.input.SetValue(m.inputs[m.recall])
				m.input.CursorEnd()
			} else {
				m.recall = len(m.inputs)
				m.input.Reset()
			}
			return m, nil

		case "enter":
			if m.loading {
				return m, nil
			}
			line := m.input.Value()
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			m.inputs = append(m.inputs, line)
			m.recall = len(m.inputs)
			m.input.Reset()
			m.loading = true
			m.view = ViewTranscript
			return m, tea.Batch(m.evaluate(line), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 8
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = msg.Width - 6
		m.updateContent()

	case evalResultMsg:
		m.loading = false
		m.last = msg.duration
		m.transcript = append(m.transcript, transcriptLine{input: msg.input})
		for i := range msg.entries {
			entry := msg.entries[i]
			m.statements++
			if entry.Failed() {
				m.errors++
			}
			m.transcript = append(m.transcript, transcriptLine{entry: &entry})
		}
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{errText: msg.err.Error()})
		}
		m.updateContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if m.view == ViewTokens {
		m.updateContent()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// evaluate runs the backend outside the update loop
func (m Model) evaluate(line string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), EvalTimeout)
		defer cancel()

		start := time.Now()
		entries, err := backend.Evaluate(ctx, line)
		return evalResultMsg{input: line, entries: entries, err: err, duration: time.Since(start)}
	}
}

func (m *Model) updateContent() {
	if !m.ready {
		return
	}
	switch m.view {
	case ViewTranscript:
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
	case ViewTokens:
		m.viewport.SetContent(m.renderTokens())
		m.viewport.GotoTop()
	}
}

func (m *Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return SubtitleStyle.Render("Enter statements terminated by ';'. Tab shows the tokens of the current input.")
	}

	var s strings.Builder
	for _, line := range m.transcript {
		switch {
		case line.input != "":
			s.WriteString(HelpStyle.Render("> " + line.input))
		case line.entry != nil && line.entry.Failed():
			s.WriteString(NumberStyle.Render(fmt.Sprintf("#%d ", line.entry.Statement)))
			s.WriteString(ErrorMessageStyle.Render(line.entry.Error))
		case line.entry != nil:
			s.WriteString(NumberStyle.Render(fmt.Sprintf("#%d ", line.entry.Statement)))
			s.WriteString(StatementStyle.Render(line.entry.Text))
			s.WriteString(" = ")
			s.WriteString(ValueStyle.Render(fmt.Sprintf("%d", line.entry.Value)))
		default:
			s.WriteString(ErrorMessageStyle.Render("Error: " + line.errText))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m *Model) renderTokens() string {
	tokens := lexer.Tokenize(m.input.Value())
	if len(tokens) == 0 {
		return SubtitleStyle.Render("Type a statement to see its lexemes.")
	}

	var s strings.Builder
	index := 0
	for _, tok := range tokens {
		style := tokenStyle(tok.Category)
		if tok.Category == lexer.Invalid {
			s.WriteString(fmt.Sprintf("  %s  %s\n", style.Render(fmt.Sprintf("%-4s", tok.Lexeme)), "not a lexeme"))
			continue
		}
		s.WriteString(fmt.Sprintf("%2d %s  %s\n", index, style.Render(fmt.Sprintf("%-4s", tok.Lexeme)), tok.Category))
		index++
		if tok.Category == lexer.SemiColon {
			index = 0
		}
	}
	return s.String()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.viewport.View())
	s.WriteString("\n")
	if m.loading {
		s.WriteString(m.spinner.View())
		s.WriteString(" Evaluating...\n")
	}
	s.WriteString(FocusedInputStyle.Render(m.input.View()))
	s.WriteString("\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

func (m *Model) renderHeader() string {
	tabs := []string{"Transcript", "Tokens"}
	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if View(i) == m.view {
			rendered[i] = ActiveTabStyle.Render(tab)
		} else {
			rendered[i] = TabStyle.Render(tab)
		}
	}

	title := TitleStyle.Render("bexpr")
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

func (m *Model) renderFooter() string {
	status := fmt.Sprintf("%s | statements: %d | errors: %d", m.backend.Name(), m.statements, m.errors)
	if m.last > 0 {
		status += fmt.Sprintf(" | last: %s", m.last.Round(time.Microsecond))
	}
	help := HelpStyle.Render("enter: evaluate  tab: tokens  up/down: recall  ctrl+l: clear  esc: quit")
	return lipgloss.JoinVertical(lipgloss.Left, StatusBarStyle.Render(status), help)
}

// Run starts the REPL on the terminal
func Run(backend Backend) error {
	p := tea.NewProgram(NewModel(backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
