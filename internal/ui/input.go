package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/kbconsole/internal/keys"
)

func (m *Model) updateInputCursorModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.inputCursor, cmd = m.inputCursor.Update(msg)
	return cmd
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m.quit()
	case key.Matches(keyMsg, m.keys.PageUp):
		m.scroll(-1)
		return nil
	case key.Matches(keyMsg, m.keys.PageDown):
		m.scroll(1)
		return nil
	}
	_, before := m.term.Input()
	for _, e := range keys.FromTea(keyMsg) {
		m.term.HandleKey(e)
	}
	if _, after := m.term.Input(); after != before {
		m.inputCursorDirty = true
	}
	m.syncLog()
	return nil
}

// scroll moves the log by whole pages; negative values scroll up.
func (m *Model) scroll(pages int) {
	step := m.log.Height
	if step < 1 {
		step = 1
	}
	m.log.SetYOffset(m.log.YOffset + pages*step)
}
