package repl

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/bexpr/internal/lexer"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorFg        = lipgloss.Color("#F9FAFB")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	StatementStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	ValueStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(colorError)

	NumberStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(colorFg).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	FocusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(colorPrimary).
				Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorMuted)

	ActiveTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorPrimary).
			Bold(true).
			Underline(true)

	// Token preview
	literalStyle    = lipgloss.NewStyle().Foreground(colorSecondary)
	operatorStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	comparisonStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	punctStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	invalidStyle    = lipgloss.NewStyle().Foreground(colorError).Underline(true)
)

// tokenStyle picks the preview style for a category
func tokenStyle(c lexer.Category) lipgloss.Style {
	switch {
	case c == lexer.IntLiteral:
		return literalStyle
	case c.IsComparison():
		return comparisonStyle
	case c == lexer.Invalid:
		return invalidStyle
	case c == lexer.LeftParen, c == lexer.RightParen, c == lexer.SemiColon:
		return punctStyle
	default:
		return operatorStyle
	}
}
