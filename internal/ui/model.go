package ui

import (
	"reflect"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/kbconsole/internal/terminal"
	"github.com/atomicstack/kbconsole/internal/theme"
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options configures the UI model.
type Options struct {
	// Width and Height pin the layout; zero follows the terminal size.
	Width      int
	Height     int
	ShowFooter bool
}

// Model implements the Bubble Tea model for a console session.
type Model struct {
	term *terminal.Terminal

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool

	log     viewport.Model
	content string

	inputCursor      cursor.Model
	inputCursorDirty bool
	keys             keyMap
	help             help.Model

	handlers map[reflect.Type]msgHandler
	quitting bool
}

// NewModel wraps term for display.
func NewModel(term *terminal.Terminal, opts Options) *Model {
	m := &Model{
		term:       term,
		showFooter: opts.ShowFooter,
		log:        viewport.New(0, 0),
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = *styles.Cursor
	}
	if styles.PromptInput != nil {
		c.TextStyle = *styles.PromptInput
	}
	c.SetChar(" ")
	m.inputCursor = c
	m.registerHandlers()
	m.syncLog()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForTerminalEvent(m.term)}
	if cmd := m.inputCursor.Focus(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateInputCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):         m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):  m.handleWindowSizeMsg,
		reflect.TypeOf(terminalChangedMsg{}): m.handleTerminalChangedMsg,
		reflect.TypeOf(terminalQuitMsg{}):    m.handleTerminalQuitMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.inputCursorDirty {
		m.inputCursorDirty = false
		m.inputCursor.Blink = false
		if cmd := m.inputCursor.BlinkCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

type terminalChangedMsg struct{}

type terminalQuitMsg struct{}

// waitForTerminalEvent blocks until the terminal reports new output or asks
// to quit. Quit wins when both are ready.
func waitForTerminalEvent(t *terminal.Terminal) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-t.QuitRequested():
			return terminalQuitMsg{}
		case <-t.Changes():
			select {
			case <-t.QuitRequested():
				return terminalQuitMsg{}
			default:
			}
			return terminalChangedMsg{}
		}
	}
}

func (m *Model) handleTerminalChangedMsg(tea.Msg) tea.Cmd {
	m.syncLog()
	return waitForTerminalEvent(m.term)
}

func (m *Model) handleTerminalQuitMsg(tea.Msg) tea.Cmd {
	return m.quit()
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	return tea.Quit
}

// Quitting reports whether the model has asked the program to exit.
func (m *Model) Quitting() bool {
	return m.quitting
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncLog()
	return nil
}
