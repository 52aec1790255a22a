package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/atomicstack/kbconsole/internal/markup"
	"github.com/atomicstack/kbconsole/internal/terminal"
)

const (
	headerSeparator = " → "
	idleHint        = "↑/↓ to move, enter to select"
	// logMinWidth is the narrowest log column the panel may leave behind.
	logMinWidth = 30
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	m.syncLog()
	rows := make([]string, 0, 4)
	rows = append(rows, m.headerView())
	body := m.log.View()
	if panel := m.panelView(); panel != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}
	rows = append(rows, body, m.promptView())
	if m.showFooter {
		m.help.Width = m.width
		rows = append(rows, m.help.View(m.keys))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) headerView() string {
	crumbs := m.term.Breadcrumb()
	header := strings.Join(crumbs, headerSeparator)
	if m.width > 0 && lipgloss.Width(header) > m.width {
		header = truncate.StringWithTail(header, uint(m.width-1), "…")
	}
	return styles.Header.Render(header)
}

func (m *Model) promptView() string {
	if m.term.Mode() != terminal.ModeCollectingLine {
		return styles.Hint.Render(idleHint)
	}
	prefix, value := m.term.Input()
	return styles.Prompt.Render(prefix) + styles.PromptInput.Render(value) + m.inputCursor.View()
}

// panelView renders the device panel, or nothing when it is empty or the
// window is too narrow to show it beside the log.
func (m *Model) panelView() string {
	text := strings.TrimSpace(m.term.Panel())
	if text == "" {
		return ""
	}
	lines := renderMarkupLines(text, *styles.Console)
	panel := styles.Panel.Render(strings.Join(lines, "\n"))
	if m.width > 0 && m.width-lipgloss.Width(panel) < logMinWidth {
		return ""
	}
	return panel
}

func (m *Model) logWidth() int {
	if m.width <= 0 {
		return 0
	}
	return m.width - lipgloss.Width(m.panelView())
}

// bodyHeight is the number of rows left for the log, or 0 when the height is
// not yet known.
func (m *Model) bodyHeight() int {
	if m.height <= 0 {
		return 0
	}
	used := 2 // header + prompt
	if m.showFooter {
		used++
	}
	if remain := m.height - used; remain > 1 {
		return remain
	}
	return 1
}

// syncLog re-renders the console log into the viewport. The view stays
// pinned to the newest output unless the user has scrolled away from it.
func (m *Model) syncLog() {
	width := m.logWidth()
	content := m.renderLog(width)
	height := m.bodyHeight()
	if height == 0 {
		height = lipgloss.Height(content)
	}
	follow := m.content == "" || m.log.AtBottom()
	m.log.Width = width
	m.log.Height = height
	if content == m.content {
		return
	}
	m.content = content
	m.log.SetContent(content)
	if follow {
		m.log.GotoBottom()
	}
}

func (m *Model) renderLog(width int) string {
	entries := m.term.Log().Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		base := styles.Console
		if e.IsMenu {
			base = styles.Menu
		}
		for _, line := range renderMarkupLines(strings.TrimSuffix(e.Text, "\n"), *base) {
			if width > 0 {
				line = wrap.String(wordwrap.String(line, width), width)
			}
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// renderMarkupLines renders markup one line at a time so that colour spans
// crossing a newline are styled on both lines without lipgloss padding the
// block to its widest line.
func renderMarkupLines(text string, base lipgloss.Style) []string {
	var (
		lines   []string
		current []markup.Segment
	)
	for _, seg := range markup.Parse(text) {
		parts := strings.Split(seg.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, markup.RenderSegments(current, base))
				current = nil
			}
			if part != "" {
				current = append(current, markup.Segment{Text: part, Color: seg.Color})
			}
		}
	}
	return append(lines, markup.RenderSegments(current, base))
}
