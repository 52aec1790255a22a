package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Console     *lipgloss.Style
	Menu        *lipgloss.Style
	Error       *lipgloss.Style
	Header      *lipgloss.Style
	HeaderSep   *lipgloss.Style
	Footer      *lipgloss.Style
	Hint        *lipgloss.Style
	Prompt      *lipgloss.Style
	PromptInput *lipgloss.Style
	Cursor      *lipgloss.Style
	Panel       *lipgloss.Style
}

var defaultStyles = Styles{
	Console: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	),
	Menu: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	HeaderSep: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	Hint: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	),
	Prompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	PromptInput: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
	),
	Cursor: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33")).Blink(true),
	),
	Panel: ptr(
		lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
